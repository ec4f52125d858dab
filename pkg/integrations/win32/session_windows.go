//go:build windows

package win32

import (
	"context"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/pkg/errors"

	"github.com/admuter/admuter/pkg/integrations/process"
)

var (
	clsidMMDeviceEnumerator  = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator   = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioSessionManager2 = ole.NewGUID("{77AA99A0-1BD6-484F-8BC7-2C654C9A9B6F}")
	iidIAudioSessionControl2 = ole.NewGUID("{BFB7FF88-7239-4FC9-8FA2-07C950BE9C6D}")
	iidISimpleAudioVolume    = ole.NewGUID("{87CE5498-68D6-44E5-9215-6DA47EF883D8}")
)

const (
	eRender   = 0
	eConsole  = 0
	clsctxAll = 0x17

	sFalse          = 0x00000001
	rpcEChangedMode = 0x80010106
)

type mmDeviceEnumerator struct{ ole.IUnknown }

type mmDeviceEnumeratorVtbl struct {
	ole.IUnknownVtbl
	EnumAudioEndpoints                     uintptr
	GetDefaultAudioEndpoint                uintptr
	GetDevice                              uintptr
	RegisterEndpointNotificationCallback   uintptr
	UnregisterEndpointNotificationCallback uintptr
}

type mmDevice struct{ ole.IUnknown }

type mmDeviceVtbl struct {
	ole.IUnknownVtbl
	Activate          uintptr
	OpenPropertyStore uintptr
	GetId             uintptr
	GetState          uintptr
}

type audioSessionManager2 struct{ ole.IUnknown }

type audioSessionManager2Vtbl struct {
	ole.IUnknownVtbl
	GetAudioSessionControl        uintptr
	GetSimpleAudioVolume          uintptr
	GetSessionEnumerator          uintptr
	RegisterSessionNotification   uintptr
	UnregisterSessionNotification uintptr
	RegisterDuckNotification      uintptr
	UnregisterDuckNotification    uintptr
}

type audioSessionEnumerator struct{ ole.IUnknown }

type audioSessionEnumeratorVtbl struct {
	ole.IUnknownVtbl
	GetCount   uintptr
	GetSession uintptr
}

type audioSessionControl2 struct{ ole.IUnknown }

type audioSessionControl2Vtbl struct {
	ole.IUnknownVtbl
	GetState                           uintptr
	GetDisplayName                     uintptr
	SetDisplayName                     uintptr
	GetIconPath                        uintptr
	SetIconPath                        uintptr
	GetGroupingParam                   uintptr
	SetGroupingParam                   uintptr
	RegisterAudioSessionNotification   uintptr
	UnregisterAudioSessionNotification uintptr
	GetSessionIdentifier               uintptr
	GetSessionInstanceIdentifier       uintptr
	GetProcessId                       uintptr
	IsSystemSoundsSession              uintptr
	SetDuckingPreference               uintptr
}

type simpleAudioVolume struct{ ole.IUnknown }

type simpleAudioVolumeVtbl struct {
	ole.IUnknownVtbl
	SetMasterVolume uintptr
	GetMasterVolume uintptr
	SetMute         uintptr
	GetMute         uintptr
}

func hresult(hr uintptr) error {
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}

// SessionController mutes WASAPI audio sessions on the default render device.
type SessionController struct{}

// NewSessionController creates a SessionController
func NewSessionController() *SessionController {
	return &SessionController{}
}

// Name returns "wasapi"
func (c *SessionController) Name() string {
	return "wasapi"
}

// SetMute implements audio.Controller. COM objects are created and released
// on every call, on a locked OS thread.
func (c *SessionController) SetMute(ctx context.Context, name string, mute bool) (bool, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		switch {
		case ok && oleErr.Code() == sFalse:
			defer ole.CoUninitialize()
		case ok && oleErr.Code() == rpcEChangedMode:
		default:
			return false, errors.Wrap(err, "initialize COM")
		}
	} else {
		defer ole.CoUninitialize()
	}

	sessions, err := openSessions()
	if err != nil {
		return false, err
	}
	defer sessions.Release()

	sev := (*audioSessionEnumeratorVtbl)(unsafe.Pointer(sessions.RawVTable))
	var count int32
	if err := hresult(callHR(sev.GetCount, uintptr(unsafe.Pointer(sessions)), uintptr(unsafe.Pointer(&count)))); err != nil {
		return false, errors.Wrap(err, "count audio sessions")
	}

	names := process.NewCache()
	found := false
	for i := int32(0); i < count; i++ {
		matched, err := muteSession(ctx, sessions, i, names, name, mute)
		if err != nil {
			return false, err
		}
		found = found || matched
	}
	return found, nil
}

func openSessions() (*audioSessionEnumerator, error) {
	unk, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidIMMDeviceEnumerator)
	if err != nil {
		return nil, errors.Wrap(err, "create device enumerator")
	}
	enum := (*mmDeviceEnumerator)(unsafe.Pointer(unk))
	defer enum.Release()

	var dev *mmDevice
	ev := (*mmDeviceEnumeratorVtbl)(unsafe.Pointer(enum.RawVTable))
	hr := callHR(ev.GetDefaultAudioEndpoint, uintptr(unsafe.Pointer(enum)), eRender, eConsole, uintptr(unsafe.Pointer(&dev)))
	if err := hresult(hr); err != nil {
		return nil, errors.Wrap(err, "get default audio endpoint")
	}
	defer dev.Release()

	var mgr *audioSessionManager2
	dv := (*mmDeviceVtbl)(unsafe.Pointer(dev.RawVTable))
	hr = callHR(dv.Activate, uintptr(unsafe.Pointer(dev)), uintptr(unsafe.Pointer(iidIAudioSessionManager2)), clsctxAll, 0, uintptr(unsafe.Pointer(&mgr)))
	if err := hresult(hr); err != nil {
		return nil, errors.Wrap(err, "activate session manager")
	}
	defer mgr.Release()

	var sessions *audioSessionEnumerator
	mv := (*audioSessionManager2Vtbl)(unsafe.Pointer(mgr.RawVTable))
	hr = callHR(mv.GetSessionEnumerator, uintptr(unsafe.Pointer(mgr)), uintptr(unsafe.Pointer(&sessions)))
	if err := hresult(hr); err != nil {
		return nil, errors.Wrap(err, "enumerate audio sessions")
	}
	return sessions, nil
}

func muteSession(ctx context.Context, sessions *audioSessionEnumerator, i int32, names *process.Cache, name string, mute bool) (bool, error) {
	var ctl *ole.IUnknown
	sev := (*audioSessionEnumeratorVtbl)(unsafe.Pointer(sessions.RawVTable))
	if err := hresult(callHR(sev.GetSession, uintptr(unsafe.Pointer(sessions)), uintptr(i), uintptr(unsafe.Pointer(&ctl)))); err != nil {
		return false, errors.Wrapf(err, "get audio session %d", i)
	}
	defer ctl.Release()

	disp, err := ctl.QueryInterface(iidIAudioSessionControl2)
	if err != nil {
		return false, nil
	}
	ctl2 := (*audioSessionControl2)(unsafe.Pointer(disp))
	defer ctl2.Release()

	var pid uint32
	cv := (*audioSessionControl2Vtbl)(unsafe.Pointer(ctl2.RawVTable))
	if err := hresult(callHR(cv.GetProcessId, uintptr(unsafe.Pointer(ctl2)), uintptr(unsafe.Pointer(&pid)))); err != nil || pid == 0 {
		return false, nil
	}
	if !names.Matches(ctx, int32(pid), name) {
		return false, nil
	}

	disp, err = ctl.QueryInterface(iidISimpleAudioVolume)
	if err != nil {
		return false, errors.Wrap(err, "query session volume")
	}
	vol := (*simpleAudioVolume)(unsafe.Pointer(disp))
	defer vol.Release()

	var flag uintptr
	if mute {
		flag = 1
	}
	vv := (*simpleAudioVolumeVtbl)(unsafe.Pointer(vol.RawVTable))
	if err := hresult(callHR(vv.SetMute, uintptr(unsafe.Pointer(vol)), flag, 0)); err != nil {
		return false, errors.Wrapf(err, "set mute for pid %d", pid)
	}
	return true, nil
}

func callHR(fn uintptr, args ...uintptr) uintptr {
	hr, _, _ := syscall.SyscallN(fn, args...)
	return hr
}

// Close is a no-op
func (c *SessionController) Close() error {
	return nil
}
