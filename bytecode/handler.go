package bytecode

// HandlerKind distinguishes try blocks that can swallow an error from those
// that only run cleanup code.
type HandlerKind int

const (
	// HandlerRescue marks a try block with a catch clause.
	HandlerRescue HandlerKind = iota + 1
	// HandlerEnsure marks a try block with only a finally clause.
	HandlerEnsure
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerRescue:
		return "rescue"
	case HandlerEnsure:
		return "ensure"
	}
	return "unknown"
}

// ExceptionHandler describes a try/catch/finally block for exception handling.
type ExceptionHandler struct {
	Kind         HandlerKind
	TryStart     int // IP where try block starts
	TryEnd       int // IP where try block ends (points to PopExcept)
	CatchStart   int // IP of catch block (0 if none)
	FinallyStart int // IP of finally block (0 if none)
	CatchVarIdx  int // Local index for catch var (-1 if none)
}
