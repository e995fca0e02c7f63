package cookie

import (
	"net/http"
)

type PropagatorOption func(propagator *Propagator)

// Propagator 通过 cookie 传递 session id
type Propagator struct {
	cookieName string
	cookieOpt  func(c *http.Cookie)
}

// WithCookieOption 设置 cookie 的其余属性，例如 Domain、Secure
func WithCookieOption(opt func(c *http.Cookie)) PropagatorOption {
	return func(propagator *Propagator) {
		propagator.cookieOpt = opt
	}
}

// NewPropagator 默认的 cookie 是 HttpOnly 的，并且对整个站点生效
func NewPropagator(cookieName string, opts ...PropagatorOption) *Propagator {
	res := &Propagator{
		cookieName: cookieName,
		cookieOpt:  func(c *http.Cookie) {},
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func (p *Propagator) newCookie(val string) *http.Cookie {
	c := &http.Cookie{
		Name:     p.cookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	p.cookieOpt(c)
	return c
}

func (p *Propagator) Inject(id string, writer http.ResponseWriter) error {
	http.SetCookie(writer, p.newCookie(id))
	return nil
}

func (p *Propagator) Extract(req *http.Request) (string, error) {
	c, err := req.Cookie(p.cookieName)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Remove 让浏览器立刻删除 cookie
func (p *Propagator) Remove(writer http.ResponseWriter) error {
	c := p.newCookie("")
	c.MaxAge = -1
	http.SetCookie(writer, c)
	return nil
}
