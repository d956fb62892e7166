package timeline

import (
	"errors"
	"io"
	"reflect"
	"sync"
)

// Scope collects every resource opened during a render and releases them in
// reverse order of registration. Close may be called any number of times.
type Scope struct {
	mu    sync.Mutex
	items []io.Closer
}

// Track registers c. Nil closers and closers already tracked are ignored.
func (s *Scope) Track(cs ...io.Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		if isNil(c) || s.contains(c) {
			continue
		}
		s.items = append(s.items, c)
	}
}

func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close releases tracked resources LIFO and joins their errors. Every
// resource is attempted even if an earlier one fails.
func (s *Scope) Close() error {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()

	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		if err := items[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scope) contains(c io.Closer) bool {
	if !reflect.TypeOf(c).Comparable() {
		return false
	}
	for _, it := range s.items {
		if reflect.TypeOf(it) == reflect.TypeOf(c) && it == c {
			return true
		}
	}
	return false
}

func isNil(c io.Closer) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// OnceCloser wraps fn so that only the first Close runs it.
func OnceCloser(fn func() error) io.Closer {
	return &onceCloser{fn: fn}
}

type onceCloser struct {
	once sync.Once
	fn   func() error
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.fn() })
	return o.err
}
