package fault

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	goerrors "github.com/go-errors/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"github.com/oshokin/package-installer/internal/domain/install"
)

const (
	// Domain scopes the ErrorInfo details produced by this project.
	Domain = "packageinstaller.v1"

	// reasonFault marks the details of the outer fault.
	reasonFault = "INSTALL_FAULT"
	// reasonInner marks the details of the inner fault.
	reasonInner = "INNER_FAULT"

	// panicType is the type name reported for recovered panics.
	panicType = "panic"
)

// Wrap attaches a stack trace to err unless it already carries one.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	var ge *goerrors.Error
	if errors.As(err, &ge) {
		return err
	}

	return goerrors.Wrap(err, 1)
}

// FromError converts err into a fault: message, Go type name, stack trace and
// one level of cause.
func FromError(err error) *install.Fault {
	if err == nil {
		return nil
	}

	var f *install.Fault
	if errors.As(err, &f) {
		return f
	}

	outer := transparent(err)
	result := &install.Fault{
		Message: outer.Error(),
		Type:    typeName(outer),
		Stack:   stackOf(err, 2),
	}

	if cause := transparent(errors.Unwrap(outer)); cause != nil {
		result.Inner = &install.Fault{
			Message: cause.Error(),
			Type:    typeName(cause),
			Stack:   stackOf(cause, -1),
		}
	}

	return result
}

// FromPanic converts a recovered value into a fault with the stack of the panic site.
func FromPanic(recovered any) *install.Fault {
	ge := goerrors.Wrap(recovered, 2)

	result := &install.Fault{
		Message: ge.Error(),
		Type:    panicType,
		Stack:   string(ge.Stack()),
	}

	if err, ok := recovered.(error); ok {
		result.Inner = &install.Fault{
			Message: err.Error(),
			Type:    typeName(err),
		}
	}

	return result
}

// ToStatus converts a fault into a gRPC status error carrying ErrorInfo and
// DebugInfo details for the fault and its inner fault.
func ToStatus(code codes.Code, f *install.Fault) error {
	if f == nil {
		return nil
	}

	st := status.New(code, f.Message)

	details := faultDetails(reasonFault, f)
	if f.Inner != nil {
		details = append(details, faultDetails(reasonInner, f.Inner)...)
	}

	withDetails, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}

	return withDetails.Err()
}

// FromStatus decodes a gRPC status error into a fault. Errors without
// fault details, such as transport failures, are reported with their status code as type.
func FromStatus(err error) (*install.Fault, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return nil, false
	}

	result := &install.Fault{
		Message: st.Message(),
		Type:    "codes." + st.Code().String(),
	}

	var current *install.Fault

	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			if d.GetDomain() != Domain {
				continue
			}

			switch d.GetReason() {
			case reasonFault:
				current = result
			case reasonInner:
				result.Inner = new(install.Fault)
				current = result.Inner
			default:
				continue
			}

			current.Type = d.GetMetadata()["type"]
			current.Message = d.GetMetadata()["message"]
		case *errdetails.DebugInfo:
			if current != nil {
				current.Stack = strings.Join(d.GetStackEntries(), "\n")
			}
		}
	}

	return result, true
}

// Write prints the fault the way operators read it: message, type and stack,
// followed by the inner fault when present.
func Write(w io.Writer, f *install.Fault) {
	if f == nil {
		return
	}

	_, _ = fmt.Fprintf(w, "Exception: %s(%s)\n%s\n", f.Message, f.Type, f.Stack)

	if f.Inner != nil {
		_, _ = fmt.Fprintf(w, "\n\nInnerException: %s(%s)\n%s\n", f.Inner.Message, f.Inner.Type, f.Inner.Stack)
	}
}

// faultDetails builds the ErrorInfo/DebugInfo pair for one fault level.
func faultDetails(reason string, f *install.Fault) []protoadapt.MessageV1 {
	return []protoadapt.MessageV1{
		&errdetails.ErrorInfo{
			Reason: reason,
			Domain: Domain,
			Metadata: map[string]string{
				"type":    f.Type,
				"message": f.Message,
			},
		},
		&errdetails.DebugInfo{
			StackEntries: splitStack(f.Stack),
			Detail:       f.Message,
		},
	}
}

// transparent strips stack-carrying wrappers so the reported type is the real one.
func transparent(err error) error {
	for err != nil {
		ge, ok := err.(*goerrors.Error) //nolint:errorlint // Wrappers are stripped one by one from the top.
		if !ok {
			return err
		}

		err = ge.Err
	}

	return nil
}

// stackOf returns the stack recorded in err's chain or, when skip is not
// negative, the stack of the caller.
func stackOf(err error, skip int) string {
	var ge *goerrors.Error
	if errors.As(err, &ge) {
		return string(ge.Stack())
	}

	if skip < 0 {
		return ""
	}

	return string(goerrors.Wrap(err, skip).Stack())
}

// typeName returns the Go type of err, e.g. "*fs.PathError".
func typeName(err error) string {
	if err == nil {
		return ""
	}

	return reflect.TypeOf(err).String()
}

// splitStack turns a printed stack into detail entries.
func splitStack(stack string) []string {
	stack = strings.TrimRight(stack, "\n")
	if stack == "" {
		return nil
	}

	return strings.Split(stack, "\n")
}
