package mediacore

import (
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of the process environment variables consulted
// by Window.InheritString.
const EnvPrefix = "MEDIACORE_"

// Window is the capability context handed to decoder device backends.
// It carries the identity and display-side state a backend needs to
// open (a DRM device path on Linux) plus a string variable map whose
// values take precedence over the process environment during
// configuration inheritance.
//
// A Window is safe for concurrent use.
type Window struct {
	id uuid.UUID

	mu        sync.RWMutex
	drmDevice string
	vars      map[string]string
}

// WindowOption configures a Window during construction.
type WindowOption func(*Window)

// WithDRMDevice sets the DRM render node path a hardware backend should
// open instead of probing for one.
func WithDRMDevice(path string) WindowOption {
	return func(w *Window) {
		w.drmDevice = path
	}
}

// WithVar sets a window-local configuration variable.
func WithVar(name, value string) WindowOption {
	return func(w *Window) {
		w.vars[name] = value
	}
}

// NewWindow creates a capability context with a fresh identity.
func NewWindow(opts ...WindowOption) *Window {
	w := &Window{
		id:   uuid.New(),
		vars: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewWindow",
		"window_id":  w.id.String(),
		"drm_device": w.drmDevice,
		"vars":       len(w.vars),
	}).Debug("window created")
	return w
}

// ID returns the window's identity.
func (w *Window) ID() uuid.UUID {
	return w.id
}

// DRMDevice returns the configured DRM render node path, empty when the
// backend should probe for one.
func (w *Window) DRMDevice() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.drmDevice
}

// SetVar sets a window-local configuration variable after construction.
func (w *Window) SetVar(name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.vars[name] = value
}

// InheritString resolves a configuration string by name: a window-local
// variable wins, then the process environment under EnvPrefix with the
// name upper-cased and dashes turned to underscores ("dec-dev" reads
// MEDIACORE_DEC_DEV), else the empty string.
func (w *Window) InheritString(name string) string {
	w.mu.RLock()
	value, ok := w.vars[name]
	w.mu.RUnlock()
	if ok {
		return value
	}

	envName := EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if value := os.Getenv(envName); value != "" {
		logrus.WithFields(logrus.Fields{
			"function": "InheritString",
			"name":     name,
			"env_var":  envName,
			"value":    value,
		}).Debug("configuration inherited from environment")
		return value
	}
	return ""
}
