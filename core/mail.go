package core

import (
	"bytes"
	"context"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/csbssync/portal/fs"
)

var (
	templates   = make(tmplCache)
	templatesMu sync.RWMutex

	errTemplateNotFound = errors.New("email template not found")
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// DeliveryResult reports the outcome of sending one message.
	DeliveryResult struct {
		Email  string `json:"email"`
		Status int    `json:"status,omitempty"`
		Error  string `json:"error,omitempty"`
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently and waits for all of them.
		// There is one DeliveryResult per message, in the same order.
		SendMessages(ctx context.Context, messages ...*EmailMessage) []DeliveryResult
	}
)

func (r DeliveryResult) OK() bool { return r.Error == "" }

// ParseEmailTemplates parses the embedded email templates once at start up.
// Files starting with "_" are layouts shared by every template of the same extension.
func ParseEmailTemplates(strict bool) error {
	return errors.Wrap(parseTemplates(appfs.FS, appfs.EmailTemplatesDir, strict), "parsing email templates")
}

func parseTemplates(fsys fs.FS, dir string, strict bool) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return errors.Wrap(err, "reading templates dir")
	}

	cache := make(tmplCache)
	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if e.IsDir() || strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = new(tmplCacheEntry)
			cache[name] = entry
		}

		base := path.Join(dir, "_base"+ext)
		fp := path.Join(dir, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry.text = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, base, fp)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", fname)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry.html = tmpl
		}
	}

	templatesMu.Lock()
	templates = cache
	templatesMu.Unlock()
	return nil
}

func getTemplate(name string) (*tmplCacheEntry, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	entry, ok := templates[name]
	return entry, ok
}

// Render fills TextContent and HTMLContent.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	entry, ok := getTemplate(m.TemplateName)
	if !ok {
		return errors.Wrap(errTemplateNotFound, m.TemplateName)
	}
	data := ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}

	if entry.text != nil && m.BodyStr == "" {
		var buff bytes.Buffer
		if err := entry.text.ExecuteTemplate(&buff, m.TemplateName+".txt", data); err != nil {
			return errors.Wrap(err, "rendering text")
		}
		m.TextContent = strings.TrimSpace(buff.String())
	}
	if entry.html != nil {
		var buff bytes.Buffer
		if err := entry.html.ExecuteTemplate(&buff, m.TemplateName+".gohtml", data); err != nil {
			return errors.Wrap(err, "rendering html")
		}
		m.HTMLContent = strings.TrimSpace(buff.String())
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// Recipient returns the first "To" address, used to label delivery results.
func (m *EmailMessage) Recipient() string {
	if len(m.To) == 0 {
		return ""
	}
	return m.To[0].Address
}
