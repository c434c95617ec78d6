// Package objfile loads ELF object files and recovers the call-graph
// metadata the matcher needs: a Graph of relative call/jump targets plus,
// for every discovered function, the opcode sequence used by the
// RelativeCodeSize heuristic.
package objfile

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/arch/x86/x86asm"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/graph"
	"github.com/binref/graphmat/metadata"
)

const textSectionName = ".text"

// ErrMissingTextSection is returned by Load when the object file has no
// .text section to disassemble.
var ErrMissingTextSection = errors.New("objfile: missing .text section")

// functionEpilogues are the byte sequences load scans for to delimit a
// function body, in the absence of any symbol table: a multi-byte NOP
// padding opcode (0F 1F), a UD2 (0F 0B), or INT3 padding (CC CC).
var functionEpilogues = [][]byte{{0x0F, 0x1F}, {0x0F, 0x0B}, {0xCC, 0xCC}}

// Function is the disassembled body of a single function: its decoded
// opcode mnemonics, in order of appearance.
type Function struct {
	opcodes []x86asm.Op
}

// OpcodeCount implements metadata.Function.
func (f Function) OpcodeCount() int { return len(f.opcodes) }

// Object is a loaded ELF object file's .text section together with the
// call graph and per-function opcode metadata recovered from it.
type Object struct {
	callGraph *graph.Graph
	functions map[graphmat.Address]Function
	entry     graphmat.Address
	textBase  graphmat.Address
	text      []byte

	log *zap.Logger
}

// Load reads path, parses it as an ELF file, and recursively disassembles
// its call graph starting from the entry point. The returned Object's
// addresses are relative to the .text section's base.
func Load(path string, log *zap.Logger) (*Object, error) {
	if log == nil {
		log = zap.NewNop()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("objfile: read %s: %w", path, err)
	}

	f, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("objfile: parse %s: %w", path, err)
	}
	defer f.Close()

	section := f.Section(textSectionName)
	if section == nil {
		return nil, ErrMissingTextSection
	}
	text, err := section.Data()
	if err != nil {
		return nil, fmt.Errorf("objfile: read .text of %s: %w", path, err)
	}

	entry := graphmat.Address(f.Entry - section.Addr)

	obj := &Object{
		callGraph: graph.New(),
		functions: make(map[graphmat.Address]Function),
		entry:     entry,
		textBase:  graphmat.Address(section.Addr),
		text:      text,
		log:       log,
	}
	obj.loadFunc(entry)

	log.Info("loaded object file",
		zap.String("path", path),
		zap.Int("functions", len(obj.functions)),
		zap.Uint64("text_base", uint64(obj.textBase)),
	)
	return obj, nil
}

// loadFunc disassembles the function starting at addr, recording its
// opcodes and recursively following any Call/Jmp targets that land inside
// the section. It is a no-op if addr was already discovered.
func (o *Object) loadFunc(addr graphmat.Address) {
	if o.callGraph.HasVertex(addr) {
		return
	}
	// A vertex with no outgoing edges yet still needs to exist so
	// HasVertex short-circuits re-entrant discovery of the same address.
	o.callGraph.Touch(addr)

	if addr >= graphmat.Address(len(o.text)) {
		return
	}
	start := int(addr)
	end := findEpilogue(o.text[start:]) + start
	body := o.text[start:end]
	o.functions[addr] = Function{opcodes: decodeOpcodes(body)}

	for off := 0; off < len(body); {
		inst, err := x86asm.Decode(body[off:], 64)
		if err != nil || inst.Len == 0 {
			off++
			continue
		}
		if inst.Op == x86asm.CALL || inst.Op == x86asm.JMP {
			if target, ok := branchTarget(inst, addr+graphmat.Address(off)); ok {
				if target < addr || target >= addr+graphmat.Address(len(body)) {
					o.callGraph.AddEdge(addr, target)
					if target < graphmat.Address(len(o.text)) {
						o.loadFunc(target)
					} else if _, ok := o.functions[target]; !ok {
						o.functions[target] = Function{}
					}
				}
			}
		}
		off += inst.Len
	}
}

// branchTarget extracts the absolute (relative-to-.text) destination of a
// direct Call/Jmp instruction, if it encodes one as a relative
// displacement. Indirect branches (register/memory operands) are not
// resolvable statically and are skipped, same as the reference decoder.
func branchTarget(inst x86asm.Inst, at graphmat.Address) (graphmat.Address, bool) {
	for _, arg := range inst.Args {
		if rel, ok := arg.(x86asm.Rel); ok {
			return at + graphmat.Address(inst.Len) + graphmat.Address(int64(rel)), true
		}
	}
	return 0, false
}

func findEpilogue(segment []byte) int {
	for i := 0; i+1 < len(segment); i++ {
		for _, pat := range functionEpilogues {
			if bytes.Equal(segment[i:i+len(pat)], pat) {
				return i
			}
		}
	}
	return len(segment)
}

func decodeOpcodes(body []byte) []x86asm.Op {
	var out []x86asm.Op
	for off := 0; off < len(body); {
		inst, err := x86asm.Decode(body[off:], 64)
		if err != nil || inst.Len == 0 {
			off++
			continue
		}
		out = append(out, inst.Op)
		off += inst.Len
	}
	return out
}

// TextSize returns the length of the .text section, the exclusive upper
// bound of any valid relative address (used to validate seed addresses).
func (o *Object) TextSize() int { return len(o.text) }

// CodeMetadata adapts Object to metadata.Code. extraRoots seeds additional
// functions to disassemble beyond those reachable from the entry point
// (seed-file addresses, per cmd/graphmat).
func (o *Object) CodeMetadata(extraRoots ...graphmat.Address) metadata.Code {
	for _, root := range extraRoots {
		o.loadFunc(root)
	}
	return (*codeAdapter)(o)
}

type codeAdapter Object

func (c *codeAdapter) CallGraph() *graph.Graph { return c.callGraph }

func (c *codeAdapter) Function(addr graphmat.Address) (metadata.Function, bool) {
	fn, ok := c.functions[addr]
	return fn, ok
}

func (c *codeAdapter) Entry() graphmat.Address    { return c.entry }
func (c *codeAdapter) TextBase() graphmat.Address { return c.textBase }
