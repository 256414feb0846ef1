// File: internal/httpconn/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpconn

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

// emptyPage is served for zero-length files, which cannot be mapped.
var emptyPage = []byte("<html><body></body></html>")

// doRequest routes a complete request to an application endpoint or a file.
func (c *Conn) doRequest() Code {
	switch c.target {
	case TargetLogin:
		if c.method == MethodPost {
			return c.authenticate(true)
		}
		return c.serveFile(PageLogin)
	case TargetRegister:
		if c.method == MethodPost {
			return c.authenticate(false)
		}
		return c.serveFile(PageRegister)
	}
	return c.serveFile(c.target)
}

// authenticate handles POST /login and POST /register.
func (c *Conn) authenticate(login bool) Code {
	user, password, ok := decodeCredentials(c.body)
	if !ok {
		return BadRequest
	}
	if c.site.Auth == nil {
		c.log.Error().Msg("no credential store configured")
		return InternalError
	}

	ctx := context.Background()
	var (
		accepted bool
		err      error
	)
	if login {
		accepted, err = c.site.Auth.Login(ctx, user, password)
	} else {
		accepted, err = c.site.Auth.Register(ctx, user, password)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("user", user).Bool("login", login).Msg("credential store failure")
		return InternalError
	}

	switch {
	case login && accepted:
		return c.serveFile(PageWelcome)
	case login:
		c.forceClose = true
		return c.serveFile(PageLoginError)
	case accepted:
		return c.serveFile(PageLogin)
	default:
		c.forceClose = true
		return c.serveFile(PageRegisterError)
	}
}

// decodeCredentials parses "user=<u>&password=<p>&". Values are URL-decoded;
// surrounding whitespace and a trailing '&' are tolerated.
func decodeCredentials(body []byte) (user, password string, ok bool) {
	var haveUser, havePass bool
	for _, pair := range strings.Split(strings.TrimSpace(string(body)), "&") {
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return "", "", false
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return "", "", false
		}
		switch k {
		case "user":
			user, haveUser = val, true
		case "password":
			password, havePass = val, true
		}
	}
	return user, password, haveUser && havePass
}

// serveFile resolves target under the document root and maps it.
func (c *Conn) serveFile(target string) Code {
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	for _, seg := range strings.Split(target, "/") {
		if seg == ".." {
			return ForbiddenRequest
		}
	}
	full := filepath.Join(c.site.Root, filepath.FromSlash(path.Clean(target)))

	info, err := os.Stat(full)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return NoResource
	case err != nil:
		c.log.Debug().Err(err).Str("path", full).Msg("stat failed")
		return ForbiddenRequest
	case !info.Mode().IsRegular(), info.Mode().Perm()&0o004 == 0:
		return ForbiddenRequest
	}

	c.unmap()
	if info.Size() == 0 {
		c.file = emptyPage
	} else {
		data, err := mapFile(full, int(info.Size()))
		if err != nil {
			c.log.Error().Err(err).Str("path", full).Msg("map file")
			return InternalError
		}
		c.file = data
		c.mapped = true
	}
	c.served = target
	return FileRequest
}

// unmap releases the mapped file, if any.
func (c *Conn) unmap() {
	if c.mapped {
		if err := unmapFile(c.file); err != nil {
			c.log.Warn().Err(err).Msg("unmap file")
		}
	}
	c.file = nil
	c.mapped = false
}
