package view

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/a-h/templ"
	"github.com/blues/helprojects/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Russian)

// Rubles 金额按俄语习惯分组
func Rubles(n int64) string {
	return printer.Sprintf("%d ₽", n)
}

// Percent 进度百分比，封顶 100
func Percent(p model.Project) int {
	pct := int(math.Round(p.Progress() * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// FormatDate 日期 dd.mm.yyyy
func FormatDate(p model.Project) string {
	return p.CreatedAt.Format("02.01.2006")
}

// writer 顺序写入，记住第一个错误
type writer struct {
	w   io.Writer
	err error
}

func (h *writer) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text 写入转义后的文本
func (h *writer) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *writer) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// attr 写入转义后的属性值
func (h *writer) attr(name, value string) {
	h.rawf(` %s="%s"`, name, templ.EscapeString(value))
}

// url 写入经过协议过滤的链接属性
func (h *writer) url(name, value string) {
	h.attr(name, string(templ.URL(value)))
}

// component 渲染子组件
func (h *writer) component(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}
