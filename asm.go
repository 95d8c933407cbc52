package main

import (
	"bytes"
	"fmt"
	"strings"
)

// CompilationContext owns all mutable code-generation state for one
// run: the text and data sections, the fresh-label counter, and the
// deduplicating string-constant table. Constructing a fresh context
// per run is what keeps runs isolated; there are no package-level
// tables to reset.
type CompilationContext struct {
	text bytes.Buffer
	data bytes.Buffer

	stringLabels map[string]string
	stringOrder  []string
	labelCount   int
}

func NewCompilationContext() *CompilationContext {
	return &CompilationContext{stringLabels: map[string]string{}}
}

// NewLabel returns a fresh local label.
func (ctx *CompilationContext) NewLabel() string {
	label := fmt.Sprintf(".L%d", ctx.labelCount)
	ctx.labelCount++
	return label
}

// StringLabel returns the data-section label for a string literal,
// deduplicated: identical literals anywhere in the program share one
// entry, assigned in first-occurrence order.
func (ctx *CompilationContext) StringLabel(s string) string {
	if label, ok := ctx.stringLabels[s]; ok {
		return label
	}
	label := fmt.Sprintf("str_%d", len(ctx.stringOrder))
	ctx.stringLabels[s] = label
	ctx.stringOrder = append(ctx.stringOrder, s)
	return label
}

// Fixed data-section labels: the print formats and literal texts.
const (
	labelFmtInt    = "fmt_int"
	labelFmtStr    = "fmt_str"
	labelBoolTrue  = "bool_true"
	labelBoolFalse = "bool_false"
	labelNilText   = "nil_text"
)

// === instruction vocabulary ===
//
// Mnemonic-level builders appending GNU-assembler Intel-syntax text to
// the text section. The code generator treats these as its fixed
// primitive vocabulary.

func (ctx *CompilationContext) ins(format string, args ...interface{}) {
	fmt.Fprintf(&ctx.text, "  "+format+"\n", args...)
}

func (ctx *CompilationContext) Label(name string) {
	fmt.Fprintf(&ctx.text, "%s:\n", name)
}

func (ctx *CompilationContext) Mov(dst, src string)  { ctx.ins("mov %s, %s", dst, src) }
func (ctx *CompilationContext) Push(reg string)      { ctx.ins("push %s", reg) }
func (ctx *CompilationContext) Pop(reg string)       { ctx.ins("pop %s", reg) }
func (ctx *CompilationContext) Add(dst, src string)  { ctx.ins("add %s, %s", dst, src) }
func (ctx *CompilationContext) Sub(dst, src string)  { ctx.ins("sub %s, %s", dst, src) }
func (ctx *CompilationContext) IMul(dst, src string) { ctx.ins("imul %s, %s", dst, src) }
func (ctx *CompilationContext) Cqo()                 { ctx.ins("cqo") }
func (ctx *CompilationContext) IDiv(reg string)      { ctx.ins("idiv %s", reg) }
func (ctx *CompilationContext) Cmp(a, b string)      { ctx.ins("cmp %s, %s", a, b) }
func (ctx *CompilationContext) Neg(reg string)       { ctx.ins("neg %s", reg) }
func (ctx *CompilationContext) And(dst, src string)  { ctx.ins("and %s, %s", dst, src) }
func (ctx *CompilationContext) Or(dst, src string)   { ctx.ins("or %s, %s", dst, src) }
func (ctx *CompilationContext) Xor(dst, src string)  { ctx.ins("xor %s, %s", dst, src) }
func (ctx *CompilationContext) Ret()                 { ctx.ins("ret") }
func (ctx *CompilationContext) Call(name string)     { ctx.ins("call %s", name) }
func (ctx *CompilationContext) Jmp(label string)     { ctx.ins("jmp %s", label) }
func (ctx *CompilationContext) Je(label string)      { ctx.ins("je %s", label) }
func (ctx *CompilationContext) Jne(label string)     { ctx.ins("jne %s", label) }

// MovImm loads an integer constant, widening to movabs when the value
// does not fit a sign-extended 32-bit immediate.
func (ctx *CompilationContext) MovImm(dst string, val int64) {
	if val >= -2147483648 && val <= 2147483647 {
		ctx.ins("mov %s, %d", dst, val)
	} else {
		ctx.ins("movabs %s, %d", dst, val)
	}
}

// MemOp renders a frame- or register-relative memory operand.
func MemOp(base string, off int) string {
	if off == 0 {
		return fmt.Sprintf("[%s]", base)
	}
	return fmt.Sprintf("[%s%+d]", base, off)
}

// LoadMem emits `mov dst, [base+off]`.
func (ctx *CompilationContext) LoadMem(dst, base string, off int) {
	ctx.ins("mov %s, %s", dst, MemOp(base, off))
}

// StoreMem emits `mov [base+off], src`.
func (ctx *CompilationContext) StoreMem(base string, off int, src string) {
	ctx.ins("mov %s, %s", MemOp(base, off), src)
}

// StoreImm emits `mov qword ptr [base+off], val` for small constants.
func (ctx *CompilationContext) StoreImm(base string, off int, val int64) {
	ctx.ins("mov qword ptr %s, %d", MemOp(base, off), val)
}

// Lea emits `lea dst, [base+off]`.
func (ctx *CompilationContext) Lea(dst, base string, off int) {
	ctx.ins("lea %s, %s", dst, MemOp(base, off))
}

// LeaLabel emits a rip-relative address load of a data label.
func (ctx *CompilationContext) LeaLabel(dst, label string) {
	ctx.ins("lea %s, [rip+%s]", dst, label)
}

// SetCC emits the flag-to-byte sequence for a comparison: setcc on al,
// zero-extended into rax.
func (ctx *CompilationContext) SetCC(cc string) {
	ctx.ins("set%s al", cc)
	ctx.ins("movzx rax, al")
}

// Assembly assembles the final program text: the section header, the
// alignment trampolines, the generated text, and the data section with
// the fixed constants followed by the deduplicated string literals.
func (ctx *CompilationContext) Assembly() string {
	var sb strings.Builder
	sb.WriteString(".intel_syntax noprefix\n")
	sb.WriteString(".text\n")
	sb.WriteString(".globl main\n\n")

	// Trampolines keeping rsp 16-byte aligned at C call sites; the
	// generated frames make no alignment promise of their own.
	for _, name := range []string{"printf", "malloc", "calloc"} {
		fmt.Fprintf(&sb, "_%s:\n", name)
		sb.WriteString("  push rbp\n")
		sb.WriteString("  mov rbp, rsp\n")
		sb.WriteString("  and rsp, -16\n")
		fmt.Fprintf(&sb, "  call %s\n", name)
		sb.WriteString("  mov rsp, rbp\n")
		sb.WriteString("  pop rbp\n")
		sb.WriteString("  ret\n\n")
	}

	sb.Write(ctx.text.Bytes())

	sb.WriteString("\n.data\n")
	fmt.Fprintf(&sb, "%s: .string \"%%ld\"\n", labelFmtInt)
	fmt.Fprintf(&sb, "%s: .string \"%%s\"\n", labelFmtStr)
	fmt.Fprintf(&sb, "%s: .string \"true\"\n", labelBoolTrue)
	fmt.Fprintf(&sb, "%s: .string \"false\"\n", labelBoolFalse)
	fmt.Fprintf(&sb, "%s: .string \"nil\"\n", labelNilText)
	for _, s := range ctx.stringOrder {
		fmt.Fprintf(&sb, "%s: .string \"%s\"\n", ctx.stringLabels[s], escapeAsm(s))
	}
	return sb.String()
}

// escapeAsm re-escapes a decoded string literal for a .string
// directive.
func escapeAsm(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			sb.WriteString("\\n")
		case '\t':
			sb.WriteString("\\t")
		case '"':
			sb.WriteString("\\\"")
		case '\\':
			sb.WriteString("\\\\")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
