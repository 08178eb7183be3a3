//go:build windows
// +build windows

package catia

import (
	"errors"
	"fmt"
	"syscall"
	"time"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// Dispatch error codes translated into ErrMemberNotFound
const (
	dispMemberNotFound = 0x80020003 // DISP_E_MEMBERNOTFOUND
	dispUnknownName    = 0x80020006 // DISP_E_UNKNOWNNAME
)

func initAutomation() error {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return fmt.Errorf("initialize com runtime: %w", err)
	}
	return nil
}

func shutdownAutomation() {
	ole.CoUninitialize()
}

func attachObject(progID string) (Object, error) {
	unknown, err := oleutil.GetActiveObject(progID)
	if err != nil {
		return nil, fmt.Errorf("attach to %s: %w", progID, err)
	}
	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		return nil, fmt.Errorf("attach to %s: %w", progID, err)
	}
	return &comObject{disp: disp}, nil
}

func startObject(progID string) (Object, error) {
	unknown, err := oleutil.CreateObject(progID)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", progID, err)
	}
	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", progID, err)
	}
	return &comObject{disp: disp}, nil
}

// comObject adapts a raw IDispatch handle to the Object interface
type comObject struct {
	disp *ole.IDispatch
}

func (o *comObject) Get(property string, args ...any) (Result, error) {
	if o.disp == nil {
		return Result{}, ErrNotConnected
	}
	v, err := oleutil.GetProperty(o.disp, property, comArgs(args)...)
	if err != nil {
		return Result{}, wrapDispatchError(property, err)
	}
	return fromVariant(v), nil
}

func (o *comObject) Put(property string, value any) error {
	if o.disp == nil {
		return ErrNotConnected
	}
	if _, err := oleutil.PutProperty(o.disp, property, comArgs([]any{value})...); err != nil {
		return wrapDispatchError(property, err)
	}
	return nil
}

func (o *comObject) Call(method string, args ...any) (Result, error) {
	if o.disp == nil {
		return Result{}, ErrNotConnected
	}
	v, err := oleutil.CallMethod(o.disp, method, comArgs(args)...)
	if err != nil {
		return Result{}, wrapDispatchError(method, err)
	}
	return fromVariant(v), nil
}

// TypeName reads the coclass name from the object's type info, the
// same lookup the application's own VB editor shows for a variable
func (o *comObject) TypeName() (string, error) {
	if o.disp == nil {
		return "", ErrNotConnected
	}
	ti, err := o.disp.GetTypeInfo()
	if err != nil {
		return "", fmt.Errorf("type info: %w", err)
	}
	defer ti.Release()
	return typeInfoName(ti)
}

// Same compares COM identity: QueryInterface for IUnknown must hand
// back the identical pointer for the same underlying object
func (o *comObject) Same(other Object) bool {
	oc, ok := other.(*comObject)
	if !ok || o.disp == nil || oc.disp == nil {
		return false
	}
	a, err := o.disp.QueryInterface(ole.IID_IUnknown)
	if err != nil {
		return false
	}
	defer a.Release()
	b, err := oc.disp.QueryInterface(ole.IID_IUnknown)
	if err != nil {
		return false
	}
	defer b.Release()
	return a == b
}

func (o *comObject) Release() {
	if o.disp != nil {
		o.disp.Release()
		o.disp = nil
	}
}

// comArgs converts interface-level arguments into what the dispatch
// layer marshals: nested objects unwrap to their IDispatch and ints
// narrow to VT_I4, which is what automation servers expect
func comArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *comObject:
			out[i] = v.disp
		case int:
			out[i] = int32(v)
		default:
			out[i] = arg
		}
	}
	return out
}

// fromVariant normalizes a VARIANT result to the Result scalar set
func fromVariant(v *ole.VARIANT) Result {
	switch val := v.Value().(type) {
	case nil:
		return Result{}
	case bool:
		return ResultOf(val)
	case string:
		return ResultOf(val)
	case int8:
		return ResultOf(int(val))
	case int16:
		return ResultOf(int(val))
	case int32:
		return ResultOf(int(val))
	case int64:
		return ResultOf(int(val))
	case uint8:
		return ResultOf(int(val))
	case uint16:
		return ResultOf(int(val))
	case uint32:
		return ResultOf(int(val))
	case uint64:
		return ResultOf(int(val))
	case float32:
		return ResultOf(float64(val))
	case float64:
		return ResultOf(val)
	case time.Time:
		return ResultOf(val.Format(time.RFC3339))
	case *ole.IDispatch:
		if val == nil {
			return Result{}
		}
		return ResultOf(Object(&comObject{disp: val}))
	case *ole.IUnknown:
		if val == nil {
			return Result{}
		}
		disp, err := val.QueryInterface(ole.IID_IDispatch)
		val.Release()
		if err != nil {
			return Result{}
		}
		return ResultOf(Object(&comObject{disp: disp}))
	default:
		return ResultOf(fmt.Sprintf("%v", val))
	}
}

func wrapDispatchError(member string, err error) error {
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch uint32(oleErr.Code()) {
		case dispMemberNotFound, dispUnknownName:
			return &MemberError{Member: member, Err: ErrMemberNotFound}
		}
	}
	return &MemberError{Member: member, Err: err}
}

// typeInfoName calls ITypeInfo::GetDocumentation for the type itself
// (MEMBERID_NIL); go-ole does not wrap that entry point
func typeInfoName(ti *ole.ITypeInfo) (string, error) {
	var bstrName *uint16
	memid := int32(-1) // MEMBERID_NIL
	hr, _, _ := syscall.SyscallN(
		ti.VTable().GetDocumentation,
		uintptr(unsafe.Pointer(ti)),
		uintptr(uint32(memid)),
		uintptr(unsafe.Pointer(&bstrName)),
		0,
		0,
		0,
	)
	if hr != 0 {
		return "", fmt.Errorf("type documentation: %w", ole.NewError(hr))
	}
	if bstrName == nil {
		return "", nil
	}
	defer ole.SysFreeString((*int16)(unsafe.Pointer(bstrName)))
	return ole.BstrToString(bstrName), nil
}
