// Package store provides in-process implementations of the wfh storage
// interfaces.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	applications map[wfh.ApplicationID]wfh.Application
	bookings     map[wfh.BookingID]wfh.Booking
	withdrawals  map[wfh.BookingID][]wfh.WithdrawalRecord
	halves       map[halfKey]wfh.BookingID // live half-days
}

// halfKey identifies one half-day of one staff member.
type halfKey struct {
	StaffID wfh.StaffID
	Date    string
	Half    wfh.Slot
}

func NewMemory() *Memory {
	return &Memory{
		applications: make(map[wfh.ApplicationID]wfh.Application),
		bookings:     make(map[wfh.BookingID]wfh.Booking),
		withdrawals:  make(map[wfh.BookingID][]wfh.WithdrawalRecord),
		halves:       make(map[halfKey]wfh.BookingID),
	}
}

func halvesOf(b wfh.Booking) []halfKey {
	var keys []halfKey
	for _, h := range b.Slot.Halves() {
		keys = append(keys, halfKey{StaffID: b.StaffID, Date: b.Date.String(), Half: h})
	}
	return keys
}

func (m *Memory) CreateApplication(_ context.Context, app wfh.Application, bookings []wfh.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(app, bookings)
}

func (m *Memory) createLocked(app wfh.Application, bookings []wfh.Booking) error {
	if _, exists := m.applications[app.ID]; exists {
		return fmt.Errorf("application %s already exists", app.ID)
	}

	// Check every half-day first so a rejected batch writes nothing
	claimed := make(map[halfKey]bool)
	for _, b := range bookings {
		if !b.Status.IsLive() {
			continue
		}
		for _, k := range halvesOf(b) {
			if _, taken := m.halves[k]; taken || claimed[k] {
				return fmt.Errorf("%s %s of staff %d: %w", k.Date, k.Half, k.StaffID, wfh.ErrSlotTaken)
			}
			claimed[k] = true
		}
	}

	m.applications[app.ID] = app
	for _, b := range bookings {
		m.bookings[b.ID] = b
		if b.Status.IsLive() {
			for _, k := range halvesOf(b) {
				m.halves[k] = b.ID
			}
		}
	}
	return nil
}

func (m *Memory) GetApplication(_ context.Context, id wfh.ApplicationID) (*wfh.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getApplicationLocked(id), nil
}

func (m *Memory) getApplicationLocked(id wfh.ApplicationID) *wfh.Application {
	app, ok := m.applications[id]
	if !ok {
		return nil
	}
	return &app
}

func (m *Memory) SetApplicationRejectReason(_ context.Context, id wfh.ApplicationID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setRejectReasonLocked(id, reason)
}

func (m *Memory) setRejectReasonLocked(id wfh.ApplicationID, reason string) error {
	app, ok := m.applications[id]
	if !ok {
		return fmt.Errorf("application %s: %w", id, wfh.ErrNotFound)
	}
	app.RejectReason = &reason
	m.applications[id] = app
	return nil
}

func (m *Memory) GetBooking(_ context.Context, id wfh.BookingID) (*wfh.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBookingLocked(id), nil
}

func (m *Memory) getBookingLocked(id wfh.BookingID) *wfh.Booking {
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	return &b
}

func (m *Memory) FindBookings(_ context.Context, f wfh.BookingFilter) ([]wfh.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(f), nil
}

func (m *Memory) findLocked(f wfh.BookingFilter) []wfh.Booking {
	var result []wfh.Booking
	for _, b := range m.bookings {
		if f.Matches(b) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *Memory) CountBookings(_ context.Context, f wfh.BookingFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countLocked(f), nil
}

func (m *Memory) countLocked(f wfh.BookingFilter) int {
	n := 0
	for _, b := range m.bookings {
		if f.Matches(b) {
			n++
		}
	}
	return n
}

func (m *Memory) UpdateBooking(_ context.Context, b wfh.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateBookingLocked(b)
}

func (m *Memory) updateBookingLocked(b wfh.Booking) error {
	old, ok := m.bookings[b.ID]
	if !ok {
		return fmt.Errorf("booking %s: %w", b.ID, wfh.ErrNotFound)
	}

	switch {
	case old.Status.IsLive() && !b.Status.IsLive():
		for _, k := range halvesOf(old) {
			delete(m.halves, k)
		}
	case !old.Status.IsLive() && b.Status.IsLive():
		for _, k := range halvesOf(old) {
			if _, taken := m.halves[k]; taken {
				return fmt.Errorf("%s %s of staff %d: %w", k.Date, k.Half, k.StaffID, wfh.ErrSlotTaken)
			}
		}
		for _, k := range halvesOf(old) {
			m.halves[k] = b.ID
		}
	}

	old.Status = b.Status
	old.ForceWithdrawReason = b.ForceWithdrawReason
	m.bookings[b.ID] = old
	return nil
}

func (m *Memory) AppendWithdrawal(_ context.Context, w wfh.WithdrawalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendWithdrawalLocked(w)
}

func (m *Memory) appendWithdrawalLocked(w wfh.WithdrawalRecord) error {
	if _, ok := m.bookings[w.BookingID]; !ok {
		return fmt.Errorf("booking %s: %w", w.BookingID, wfh.ErrNotFound)
	}
	m.withdrawals[w.BookingID] = append(m.withdrawals[w.BookingID], w)
	return nil
}

func (m *Memory) LatestWithdrawal(_ context.Context, bookingID wfh.BookingID) (*wfh.WithdrawalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestWithdrawalLocked(bookingID), nil
}

func (m *Memory) latestWithdrawalLocked(bookingID wfh.BookingID) *wfh.WithdrawalRecord {
	records := m.withdrawals[bookingID]
	if len(records) == 0 {
		return nil
	}
	w := records[len(records)-1]
	return &w
}

func (m *Memory) UpdateWithdrawal(_ context.Context, w wfh.WithdrawalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateWithdrawalLocked(w)
}

func (m *Memory) updateWithdrawalLocked(w wfh.WithdrawalRecord) error {
	records := m.withdrawals[w.BookingID]
	for i := range records {
		if records[i].ID == w.ID {
			records[i].RejectReason = w.RejectReason
			return nil
		}
	}
	return fmt.Errorf("withdrawal %s: %w", w.ID, wfh.ErrNotFound)
}

// Withdrawals returns the full withdrawal log of a booking, oldest first.
func (m *Memory) Withdrawals(bookingID wfh.BookingID) []wfh.WithdrawalRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]wfh.WithdrawalRecord(nil), m.withdrawals[bookingID]...)
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(_ context.Context, fn func(wfh.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	applications map[wfh.ApplicationID]wfh.Application
	bookings     map[wfh.BookingID]wfh.Booking
	withdrawals  map[wfh.BookingID][]wfh.WithdrawalRecord
	halves       map[halfKey]wfh.BookingID
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		applications: make(map[wfh.ApplicationID]wfh.Application, len(tm.applications)),
		bookings:     make(map[wfh.BookingID]wfh.Booking, len(tm.bookings)),
		withdrawals:  make(map[wfh.BookingID][]wfh.WithdrawalRecord, len(tm.withdrawals)),
		halves:       make(map[halfKey]wfh.BookingID, len(tm.halves)),
	}
	for k, v := range tm.applications {
		s.applications[k] = v
	}
	for k, v := range tm.bookings {
		s.bookings[k] = v
	}
	for k, v := range tm.withdrawals {
		s.withdrawals[k] = append([]wfh.WithdrawalRecord{}, v...)
	}
	for k, v := range tm.halves {
		s.halves[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.applications = s.applications
	tm.bookings = s.bookings
	tm.withdrawals = s.withdrawals
	tm.halves = s.halves
}

// txMemoryView runs with the parent's write lock already held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreateApplication(_ context.Context, app wfh.Application, bookings []wfh.Booking) error {
	return tv.parent.createLocked(app, bookings)
}

func (tv *txMemoryView) GetApplication(_ context.Context, id wfh.ApplicationID) (*wfh.Application, error) {
	return tv.parent.getApplicationLocked(id), nil
}

func (tv *txMemoryView) SetApplicationRejectReason(_ context.Context, id wfh.ApplicationID, reason string) error {
	return tv.parent.setRejectReasonLocked(id, reason)
}

func (tv *txMemoryView) GetBooking(_ context.Context, id wfh.BookingID) (*wfh.Booking, error) {
	return tv.parent.getBookingLocked(id), nil
}

func (tv *txMemoryView) FindBookings(_ context.Context, f wfh.BookingFilter) ([]wfh.Booking, error) {
	return tv.parent.findLocked(f), nil
}

func (tv *txMemoryView) CountBookings(_ context.Context, f wfh.BookingFilter) (int, error) {
	return tv.parent.countLocked(f), nil
}

func (tv *txMemoryView) UpdateBooking(_ context.Context, b wfh.Booking) error {
	return tv.parent.updateBookingLocked(b)
}

func (tv *txMemoryView) AppendWithdrawal(_ context.Context, w wfh.WithdrawalRecord) error {
	return tv.parent.appendWithdrawalLocked(w)
}

func (tv *txMemoryView) LatestWithdrawal(_ context.Context, bookingID wfh.BookingID) (*wfh.WithdrawalRecord, error) {
	return tv.parent.latestWithdrawalLocked(bookingID), nil
}

func (tv *txMemoryView) UpdateWithdrawal(_ context.Context, w wfh.WithdrawalRecord) error {
	return tv.parent.updateWithdrawalLocked(w)
}

var (
	_ wfh.TxStore = (*TxMemory)(nil)
	_ wfh.Store   = (*txMemoryView)(nil)
)
