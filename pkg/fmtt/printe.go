// Package fmtt formats values for structured logging, using go-spew for
// the redacted/verbose dumps that a plain %v cannot produce.
package fmtt

import (
	"errors"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

// ErrorChainFields walks err's Unwrap chain and renders each layer as a
// zap field, so a single log line carries the full causal chain instead of
// just the outermost message.
func ErrorChainFields(err error) []zap.Field {
	if err == nil {
		return nil
	}

	var fields []zap.Field
	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		fields = append(fields, zap.String(layerKey(i), layerValue(e)))
	}
	return fields
}

func layerKey(i int) string {
	if i == 0 {
		return "error"
	}
	return "error_cause"
}

func layerValue(err error) string {
	rv := reflect.ValueOf(err)
	rt := reflect.TypeOf(err)
	if rt.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		return rt.String() + ": " + err.Error()
	}
	return err.Error()
}

// SpewDump renders v with go-spew, for debug-level structured dumps of
// values too irregular for a plain zap field (e.g. a redacted command
// struct).
func SpewDump(v any) string {
	return spew.Sdump(v)
}
