// Package chipfile persists the circuit population as a flat key=line file.
// The whole file is rewritten on every structural change; a crash mid-write
// loses at most the write in progress, and the last successful write wins.
package chipfile

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"redchips.ai/internal/sim/circuit"
	"redchips.ai/internal/sim/world"
)

const fieldSep = "|"

type File struct {
	Path string
}

func New(path string) *File { return &File{Path: path} }

// SaveAll rewrites the file with one record per line, keyed by circuit id.
// The write goes through a temp file and rename so a torn write never
// replaces the previous population.
func (f *File) SaveAll(recs []circuit.Record) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return errors.Wrap(err, "chipfile")
	}
	tmp := f.Path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "chipfile")
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "# %d circuits, saved %s\n", len(recs), time.Now().UTC().Format(time.RFC3339))
	for _, rec := range recs {
		fmt.Fprintf(w, "%d=%s\n", rec.ID, Encode(rec))
	}
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "chipfile")
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "chipfile")
	}
	return errors.Wrap(os.Rename(tmp, f.Path), "chipfile")
}

// LoadAll reads every parseable record. Unparseable lines are skipped, not
// fatal: the parsed records are returned together with a non-nil error
// summarizing how many lines were dropped.
func (f *File) LoadAll() ([]circuit.Record, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "chipfile")
	}
	var recs []circuit.Record
	var badLines []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			badLines = append(badLines, line)
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			badLines = append(badLines, line)
			continue
		}
		rec, err := Decode(id, val)
		if err != nil {
			badLines = append(badLines, line)
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	if len(badLines) > 0 {
		return recs, errors.Errorf("chipfile: skipped %d unparseable line(s)", len(badLines))
	}
	return recs, nil
}

// Encode renders one record as a single line:
//
//	kind|name|x,y,z|dir|args|inputs|outputs|interfaces|structure|disabled|state
//
// Pin lists are semicolon-separated marker>jack coordinate pairs. Free-text
// fields are query-escaped so the separators stay unambiguous.
func Encode(rec circuit.Record) string {
	fields := []string{
		url.QueryEscape(rec.Kind),
		url.QueryEscape(rec.Name),
		rec.Activation.String(),
		rec.Direction.String(),
		encodeArgs(rec.Args),
		encodeInputs(rec.Inputs),
		encodeOutputs(rec.Outputs),
		encodeVecs(rec.Interfaces),
		encodeVecs(rec.Structure),
		boolField(rec.Disabled),
		encodeState(rec.Internal),
	}
	return strings.Join(fields, fieldSep)
}

func Decode(id int, line string) (circuit.Record, error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 11 {
		return circuit.Record{}, errors.Errorf("want 11 fields, got %d", len(fields))
	}
	kind, err := url.QueryUnescape(fields[0])
	if err != nil || kind == "" {
		return circuit.Record{}, errors.New("bad kind field")
	}
	name, err := url.QueryUnescape(fields[1])
	if err != nil {
		return circuit.Record{}, errors.New("bad name field")
	}
	activation, err := parseVec(fields[2])
	if err != nil {
		return circuit.Record{}, err
	}
	dir, err := world.ParseDirection(fields[3])
	if err != nil {
		return circuit.Record{}, err
	}
	args, err := decodeArgs(fields[4])
	if err != nil {
		return circuit.Record{}, err
	}
	inputs, err := decodeInputs(fields[5])
	if err != nil {
		return circuit.Record{}, err
	}
	outputs, err := decodeOutputs(fields[6])
	if err != nil {
		return circuit.Record{}, err
	}
	interfaces, err := parseVecs(fields[7])
	if err != nil {
		return circuit.Record{}, err
	}
	structure, err := parseVecs(fields[8])
	if err != nil {
		return circuit.Record{}, err
	}
	internal, err := decodeState(fields[10])
	if err != nil {
		return circuit.Record{}, err
	}
	return circuit.Record{
		ID:         id,
		Kind:       kind,
		Name:       name,
		Activation: activation,
		Direction:  dir,
		Args:       args,
		Inputs:     inputs,
		Outputs:    outputs,
		Interfaces: interfaces,
		Structure:  structure,
		Disabled:   fields[9] == "1",
		Internal:   internal,
	}, nil
}

func encodeArgs(args []string) string {
	esc := make([]string, len(args))
	for i, a := range args {
		esc[i] = url.QueryEscape(a)
	}
	return strings.Join(esc, ",")
}

func decodeArgs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		a, err := url.QueryUnescape(p)
		if err != nil {
			return nil, errors.Wrap(err, "bad arg")
		}
		out[i] = a
	}
	return out, nil
}

func encodeInputs(pins []circuit.InputPin) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = p.Marker.String() + ">" + p.Source.String()
	}
	return strings.Join(parts, ";")
}

func decodeInputs(s string) ([]circuit.InputPin, error) {
	pairs, err := parseVecPairs(s)
	if err != nil {
		return nil, err
	}
	out := make([]circuit.InputPin, len(pairs))
	for i, pr := range pairs {
		out[i] = circuit.InputPin{Marker: pr[0], Source: pr[1]}
	}
	return out, nil
}

func encodeOutputs(pins []circuit.OutputPin) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = p.Marker.String() + ">" + p.Jack.String()
	}
	return strings.Join(parts, ";")
}

func decodeOutputs(s string) ([]circuit.OutputPin, error) {
	pairs, err := parseVecPairs(s)
	if err != nil {
		return nil, err
	}
	out := make([]circuit.OutputPin, len(pairs))
	for i, pr := range pairs {
		out[i] = circuit.OutputPin{Marker: pr[0], Jack: pr[1]}
	}
	return out, nil
}

func encodeVecs(vs []world.Vec3i) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ";")
}

func parseVecs(s string) ([]world.Vec3i, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	out := make([]world.Vec3i, len(parts))
	for i, p := range parts {
		v, err := parseVec(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseVecPairs(s string) ([][2]world.Vec3i, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	out := make([][2]world.Vec3i, len(parts))
	for i, p := range parts {
		a, b, ok := strings.Cut(p, ">")
		if !ok {
			return nil, errors.Errorf("bad pin pair %q", p)
		}
		va, err := parseVec(a)
		if err != nil {
			return nil, err
		}
		vb, err := parseVec(b)
		if err != nil {
			return nil, err
		}
		out[i] = [2]world.Vec3i{va, vb}
	}
	return out, nil
}

func parseVec(s string) (world.Vec3i, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return world.Vec3i{}, errors.Errorf("bad coordinate %q", s)
	}
	var v world.Vec3i
	var err error
	if v.X, err = strconv.Atoi(parts[0]); err != nil {
		return v, errors.Errorf("bad coordinate %q", s)
	}
	if v.Y, err = strconv.Atoi(parts[1]); err != nil {
		return v, errors.Errorf("bad coordinate %q", s)
	}
	if v.Z, err = strconv.Atoi(parts[2]); err != nil {
		return v, errors.Errorf("bad coordinate %q", s)
	}
	return v, nil
}

func encodeState(st map[string]string) string {
	if len(st) == 0 {
		return ""
	}
	keys := make([]string, 0, len(st))
	for k := range st {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = url.QueryEscape(k) + "=" + url.QueryEscape(st[k])
	}
	return strings.Join(parts, "&")
}

func decodeState(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	vals, err := url.ParseQuery(s)
	if err != nil {
		return nil, errors.Wrap(err, "bad state")
	}
	out := make(map[string]string, len(vals))
	for k, v := range vals {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
