package cpu

const (
	StackLimit = 16 // Maximum call depth.
)

// Stack holds subroutine return addresses.
type Stack struct {
	Data []uint16
}

// Push saves the given return address.
// Returns ErrStackOverflow if the stack is full.
func (s *Stack) Push(value uint16) error {
	if s.Full() {
		return ErrStackOverflow
	}
	s.Data = append(s.Data, value)
	return nil
}

// Pop removes and returns the most recent return address.
// Returns ErrStackUnderflow if the stack is empty.
func (s *Stack) Pop() (uint16, error) {
	value, ok := s.Peek()
	if !ok {
		return 0, ErrStackUnderflow
	}
	s.Data = s.Data[:len(s.Data)-1]
	return value, nil
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= StackLimit
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
