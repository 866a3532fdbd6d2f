package parallel

// Task is the result of a computation started with Go. The result is set
// exactly once; there is no way to cancel the computation.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs f on its own goroutine. Any buffer f writes into must stay alive
// until the task is done.
func Go[T any](f func() (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.value, t.err = f()
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.value, t.err
}

// Then calls f with the result from a new goroutine once the task finishes.
// f is called exactly once.
func (t *Task[T]) Then(f func(T, error)) {
	go func() {
		f(t.Wait())
	}()
}
