package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/zmcp/odata-vdm/internal/config"
	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/debug"
	"github.com/zmcp/odata-vdm/internal/grocery"
	"github.com/zmcp/odata-vdm/internal/models"
	"github.com/zmcp/odata-vdm/internal/vdm"
	"github.com/zmcp/odata-vdm/internal/wire"
)

// app runs one command against the grocery model
type app struct {
	cfg      *config.Config
	protocol constants.Protocol
	codec    *vdm.Codec
	typ      reflect.Type
	trace    *debug.TraceLogger
	out      io.Writer
	in       io.Reader
}

func newApp(cfg *config.Config, out io.Writer, in io.Reader) (*app, error) {
	protocol, err := cfg.ProtocolVersion()
	if err != nil {
		return nil, err
	}
	typ, err := grocery.TypeByName(cfg.Type)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if cfg.IsVerbose() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	codec, err := grocery.NewCodec(protocol, vdm.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	trace, err := debug.NewTraceLogger(cfg.Trace, cfg.TraceFile)
	if err != nil {
		return nil, err
	}
	if cfg.Trace && cfg.IsVerbose() {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Trace logging to %s\n", trace.GetFilename())
	}

	return &app{
		cfg:      cfg,
		protocol: protocol,
		codec:    codec,
		typ:      typ,
		trace:    trace,
		out:      out,
		in:       in,
	}, nil
}

func (a *app) Close() error {
	return a.trace.Close()
}

func (a *app) verbose(format string, args ...any) {
	if a.cfg.IsVerbose() {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}

// readPayload reads and unwraps a response body from path, or stdin for "-"
func (a *app) readPayload(path string) (*models.ODataResponse, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	body, err := wire.ParseLenient(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.trace.LogPayload("input", body)

	resp, err := wire.UnwrapResponse(body, a.protocol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.verbose("Read %s (%d bytes, collection: %t)", path, len(data), resp.IsCollection())
	return resp, nil
}

// load decodes every entity in the payload at path
func (a *app) load(path string) ([]vdm.Object, *models.ODataResponse, error) {
	resp, err := a.readPayload(path)
	if err != nil {
		return nil, nil, err
	}

	if resp.IsCollection() {
		items, err := a.codec.DecodeCollection(resp.Value, a.typ)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		a.verbose("Decoded %d entities", len(items))
		return items, resp, nil
	}

	obj, err := a.codec.Decode(resp.Value, a.typ)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if obj == nil {
		return nil, resp, nil
	}
	return []vdm.Object{obj}, resp, nil
}

// loadOne decodes a payload that must hold a single entity
func (a *app) loadOne(path string) (vdm.Object, error) {
	items, resp, err := a.load(path)
	if err != nil {
		return nil, err
	}
	if resp.IsCollection() || len(items) != 1 {
		return nil, fmt.Errorf("%s: expected a single entity, got %d", path, len(items))
	}
	return items[0], nil
}

// Decode prints a summary of each decoded entity
func (a *app) Decode(path string) error {
	items, resp, err := a.load(path)
	if err != nil {
		return err
	}

	summaries := make(wire.Array, 0, len(items))
	for _, obj := range items {
		s, err := a.summarize(obj)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
	}

	if !resp.IsCollection() {
		if len(summaries) == 0 {
			return a.write(nil)
		}
		return a.write(summaries[0])
	}

	out := wire.Object{"entities": summaries}
	if resp.Count != nil {
		out["count"] = *resp.Count
	}
	if resp.NextLink != "" {
		out["nextLink"] = resp.NextLink
	}
	return a.write(out)
}

func (a *app) summarize(obj vdm.Object) (wire.Object, error) {
	encoded, err := a.codec.Encode(obj)
	if err != nil {
		return nil, err
	}
	wire.RemoveKeys(encoded, constants.ODataType, constants.ODataEtag, constants.V2Metadata)
	wire.RemoveNulls(encoded)

	customs := make(map[string]bool)
	custom := wire.Object{}
	for name, value := range customFields(obj) {
		custom[name] = value
		customs[name] = true
	}
	declared := wire.Object{}
	for name, value := range encoded {
		if !customs[name] {
			declared[name] = value
		}
	}

	summary := wire.Object{
		"type":   obj.ODataType(),
		"fields": declared,
	}
	if len(custom) > 0 {
		summary["customFields"] = custom
	}
	if version, ok := versionOf(obj); ok {
		summary["version"] = version
	}
	return summary, nil
}

// Encode prints each entity re-encoded in the configured protocol
func (a *app) Encode(path string) error {
	items, resp, err := a.load(path)
	if err != nil {
		return err
	}
	if resp.IsCollection() {
		arr, err := a.codec.EncodeCollection(items)
		if err != nil {
			return err
		}
		return a.write(arr)
	}
	if len(items) == 0 {
		return a.write(nil)
	}
	out, err := a.codec.Encode(items[0])
	if err != nil {
		return err
	}
	return a.write(out)
}

// Create prints the create payload of a single entity
func (a *app) Create(path string) error {
	obj, err := a.loadOne(path)
	if err != nil {
		return err
	}
	payload, err := a.codec.BuildCreatePayload(obj)
	if err != nil {
		return err
	}
	a.trace.LogPayload("create", payload)
	a.verbose("Create request: %s", constants.POST)
	return a.write(payload)
}

// Update loads the original entity, applies the changed payload to it
// through the tracked setters and prints the resulting update request
func (a *app) Update(originalPath, changedPath string) error {
	strategy, err := vdm.ParseUpdateStrategy(a.cfg.Strategy)
	if err != nil {
		return err
	}
	original, err := a.loadOne(originalPath)
	if err != nil {
		return err
	}
	changed, err := a.loadOne(changedPath)
	if err != nil {
		return err
	}
	if err := vdm.CopyFields(original, changed); err != nil {
		return err
	}

	payload, err := a.codec.BuildUpdatePayload(original, strategy, a.cfg.IncludeFields(), a.cfg.ExcludeFields())
	if err != nil {
		return err
	}
	a.trace.LogPayload(strategy.String(), payload)

	request := wire.Object{
		"method": strategy.Method(a.protocol),
		"body":   payload,
	}
	if version, ok := versionOf(original); ok {
		request["ifMatch"] = version
	}
	a.verbose("Update request: %s with %d fields", request["method"], len(payload))
	return a.write(request)
}

func (a *app) write(v any) error {
	if a.cfg.Mask {
		v = debug.MaskPayload(v)
	}
	return writeOutput(a.out, a.cfg.Output, v)
}

// versionHolder and customHolder are satisfied by every entity through
// vdm.Base
type versionHolder interface {
	VersionIdentifier() (string, bool)
}

type customHolder interface {
	CustomFields() map[string]any
}

func versionOf(obj vdm.Object) (string, bool) {
	if v, ok := obj.(versionHolder); ok {
		return v.VersionIdentifier()
	}
	return "", false
}

func customFields(obj vdm.Object) map[string]any {
	if c, ok := obj.(customHolder); ok {
		return c.CustomFields()
	}
	return nil
}
