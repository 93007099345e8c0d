package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/object"
)

func checkCallArgs(fn *object.Closure, argc int) error {
	paramsCount := fn.ParameterCount()
	if argc == paramsCount {
		return nil
	}
	msg := "args error: function"
	if name := fn.Name(); name != "" {
		msg = fmt.Sprintf("%s %q", msg, name)
	}
	switch paramsCount {
	case 0:
		msg = fmt.Sprintf("%s takes 0 arguments (%d given)", msg, argc)
	case 1:
		msg = fmt.Sprintf("%s takes 1 argument (%d given)", msg, argc)
	default:
		msg = fmt.Sprintf("%s takes %d arguments (%d given)", msg, paramsCount, argc)
	}
	return object.TypeErrorf("%s", msg)
}
