package lang

import "github.com/gitai-dev/gitai/internal/model"

// containerStack tracks the chain of enclosing declarations during a
// traversal so each emitted symbol can record its immediate container.
type containerStack struct {
	stack []*model.Symbol
}

func (c *containerStack) top() *model.Symbol {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

func (c *containerStack) push(s *model.Symbol) {
	c.stack = append(c.stack, s)
}

func (c *containerStack) pop() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// emit attaches the current container (if any) to sym and returns it.
func (c *containerStack) emit(sym *model.Symbol) *model.Symbol {
	sym.Container = c.top()
	return sym
}
