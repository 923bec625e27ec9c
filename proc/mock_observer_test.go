// Code generated by MockGen would normally live here; hand-authored since
// the toolchain is never invoked in this build, but kept in the shape
// mockgen emits for proc.Observer.
//
//go:generate mockgen -destination=mock_observer_test.go -package=proc_test github.com/sarchlab/quartz/proc Observer

package proc_test

import (
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/sarchlab/quartz/proc"
)

// MockObserver is a mock of the Observer interface.
type MockObserver struct {
	ctrl     *gomock.Controller
	recorder *MockObserverMockRecorder
}

// MockObserverMockRecorder is the mock recorder for MockObserver.
type MockObserverMockRecorder struct {
	mock *MockObserver
}

// NewMockObserver creates a new mock instance.
func NewMockObserver(ctrl *gomock.Controller) *MockObserver {
	mock := &MockObserver{ctrl: ctrl}
	mock.recorder = &MockObserverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockObserver) EXPECT() *MockObserverMockRecorder {
	return m.recorder
}

// Update mocks base method.
func (m *MockObserver) Update(n proc.Notification) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Update", n)
}

// Update indicates an expected call of Update.
func (mr *MockObserverMockRecorder) Update(n any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockObserver)(nil).Update), n)
}
