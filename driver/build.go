package driver

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/mythos-lang/mythos/compiler"
)

// buildMagic and buildVersion identify the `build` bytecode file format
// decided in DESIGN.md's Open Question notes: a 4-byte magic, a uint32
// version, then a gob-encoded *compiler.CodeObject. gob round-trips the
// CodeObject's struct graph (including nested *CodeObject constants for
// closures) without a hand-written schema, which fits a format whose
// only consumer is Mythos's own loader.
var buildMagic = [4]byte{'M', 'Y', 'C', '1'}

const buildVersion uint32 = 1

func init() {
	gob.Register(&compiler.CodeObject{})
	gob.Register(compiler.NullConst{})
}

// WriteBuild serializes code in the `build` file format to w, per
// spec.md §6's `build <file>` CLI operation.
func WriteBuild(w io.Writer, code *compiler.CodeObject) error {
	if _, err := w.Write(buildMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, buildVersion); err != nil {
		return err
	}
	return gob.NewEncoder(w).Encode(code)
}

// ReadBuild deserializes a `build` file written by WriteBuild.
func ReadBuild(r io.Reader) (*compiler.CodeObject, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != buildMagic {
		return nil, fmt.Errorf("not a mythos bytecode file (got magic %q)", magic)
	}
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != buildVersion {
		return nil, fmt.Errorf("unsupported bytecode version %d (this build supports %d)", version, buildVersion)
	}
	var code compiler.CodeObject
	if err := gob.NewDecoder(r).Decode(&code); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &code, nil
}

// Build compiles source and serializes the result to w in one step.
func Build(w io.Writer, source string) error {
	code, err := Compile(source)
	if err != nil {
		return err
	}
	return WriteBuild(w, code)
}

