package fault

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	goerrors "github.com/go-errors/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/package-installer/internal/domain/install"
)

// TestFromError_TypeStackAndCause verifies type names, stacks and one level of cause.
func TestFromError_TypeStackAndCause(t *testing.T) {
	t.Parallel()

	_, statErr := os.Stat("/definitely/not/here.update")
	require.Error(t, statErr)

	err := fmt.Errorf("load metadata: %w", Wrap(statErr))

	f := FromError(err)
	require.NotNil(t, f)
	require.Equal(t, err.Error(), f.Message)
	require.Equal(t, "*fmt.wrapError", f.Type)
	require.Contains(t, f.Stack, "fault_test.go")

	require.NotNil(t, f.Inner)
	require.Equal(t, "*fs.PathError", f.Inner.Type)
	require.Equal(t, statErr.Error(), f.Inner.Message)
}

// TestFromError_PassesFaultsThrough keeps faults decoded from the wire untouched.
func TestFromError_PassesFaultsThrough(t *testing.T) {
	t.Parallel()

	remote := &install.Fault{Message: "boom", Type: "remote"}
	require.Same(t, remote, FromError(fmt.Errorf("install: %w", remote)))
	require.Nil(t, FromError(nil))
}

// TestFromPanic reports panics with their own type.
func TestFromPanic(t *testing.T) {
	t.Parallel()

	f := FromPanic(errors.New("nil metadata view"))
	require.Equal(t, panicType, f.Type)
	require.Contains(t, f.Message, "nil metadata view")
	require.NotNil(t, f.Inner)
	require.Equal(t, "*errors.errorString", f.Inner.Type)

	f = FromPanic("plain string")
	require.Equal(t, "plain string", f.Message)
	require.Nil(t, f.Inner)
}

// TestStatusRoundtrip encodes a fault with an inner fault and decodes it back.
func TestStatusRoundtrip(t *testing.T) {
	t.Parallel()

	want := &install.Fault{
		Message: "install package: history folder is locked",
		Type:    "*fmt.wrapError",
		Stack:   "main.go:10\ninstaller.go:42",
		Inner: &install.Fault{
			Message: "history folder is locked",
			Type:    "*fs.PathError",
			Stack:   "platform.go:7",
		},
	}

	err := ToStatus(codes.Internal, want)
	require.Equal(t, codes.Internal, status.Code(err))

	got, ok := FromStatus(err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

// TestFromStatus_TransportErrors names the status code when no details are present.
func TestFromStatus_TransportErrors(t *testing.T) {
	t.Parallel()

	got, ok := FromStatus(status.Error(codes.Unavailable, "connection refused"))
	require.True(t, ok)
	require.Equal(t, "connection refused", got.Message)
	require.Equal(t, "codes.Unavailable", got.Type)
	require.Nil(t, got.Inner)

	_, ok = FromStatus(errors.New("not a status"))
	require.False(t, ok)
}

// TestWrite prints the outer and inner fault.
func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	Write(&buf, &install.Fault{
		Message: "outer",
		Type:    "*fmt.wrapError",
		Stack:   "stack-a",
		Inner:   &install.Fault{Message: "inner", Type: "*fs.PathError", Stack: "stack-b"},
	})

	require.Equal(t,
		"Exception: outer(*fmt.wrapError)\nstack-a\n\n\nInnerException: inner(*fs.PathError)\nstack-b\n",
		buf.String(),
	)
}

// TestWrap keeps an existing stack.
func TestWrap(t *testing.T) {
	t.Parallel()

	require.NoError(t, Wrap(nil))

	first := Wrap(errors.New("first"))

	var ge *goerrors.Error
	require.ErrorAs(t, first, &ge)
	require.Same(t, first, Wrap(first))
}
