package lp

import "sync"

// stack is the LIFO of open nodes shared by the workers. It drains when it is
// empty and no worker holds a node that may still produce children.
type stack struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*node
	active int
	closed bool
}

func newStack() *stack {
	s := &stack{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *stack) push(nodes ...*node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.items = append(s.items, nodes...)
	s.cond.Broadcast()
}

// pop blocks until a node is available. It returns false once the search
// is exhausted or the stack was closed.
func (s *stack) pop() (*node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.items) == 0 && s.active > 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed || len(s.items) == 0 {
		return nil, false
	}
	nd := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	s.active++
	return nd, true
}

// done releases a popped node and pushes its children.
func (s *stack) done(children []*node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	if !s.closed {
		s.items = append(s.items, children...)
	}
	s.cond.Broadcast()
}

func (s *stack) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	s.cond.Broadcast()
}
