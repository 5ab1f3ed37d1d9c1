package keystore

// DeriveResult carries the outcome of an asynchronous derivation.
type DeriveResult struct {
	Key *DerivedKey
	Err error
}

// DerivePBKDF2Async runs DerivePBKDF2 off the caller's goroutine and delivers
// the result on the returned channel. The channel is buffered, so the result
// is never lost if the caller reads late. Output is bit-identical to the
// blocking variant for identical inputs; there is no cancellation, so an
// abandoned derivation runs to completion.
func DerivePBKDF2Async(password string, opts ...DeriveOption) <-chan DeriveResult {
	ch := make(chan DeriveResult, 1)
	go func() {
		key, err := DerivePBKDF2(password, opts...)
		ch <- DeriveResult{Key: key, Err: err}
	}()
	return ch
}

// DeriveScryptAsync is the non-blocking counterpart of DeriveScrypt, with the
// same delivery semantics as DerivePBKDF2Async.
func DeriveScryptAsync(password string, opts ...DeriveOption) <-chan DeriveResult {
	ch := make(chan DeriveResult, 1)
	go func() {
		key, err := DeriveScrypt(password, opts...)
		ch <- DeriveResult{Key: key, Err: err}
	}()
	return ch
}
