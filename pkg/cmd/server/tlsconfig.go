package server

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/config"
	"github.com/mpapenbr/racepace/pkg/utils/certs/traefik"
)

// TLSOptions names the files the server certificate is read from. A traefik
// acme.json takes precedence over cert/key files.
type TLSOptions struct {
	CertFile      string
	KeyFile       string
	TraefikCerts  string
	TraefikDomain string
}

func TLSOptionsFromConfig() TLSOptions {
	return TLSOptions{
		CertFile:      config.TLSCertFile,
		KeyFile:       config.TLSKeyFile,
		TraefikCerts:  config.TraefikCerts,
		TraefikDomain: config.TraefikCertDomain,
	}
}

func (o TLSOptions) files() []string {
	var ret []string
	for _, f := range []string{o.CertFile, o.KeyFile, o.TraefikCerts} {
		if f != "" {
			ret = append(ret, f)
		}
	}
	return ret
}

type certs struct {
	ctx  context.Context
	opts TLSOptions
	log  *log.Logger
	cert *tls.Certificate
	mu   sync.RWMutex
}

// NewTLSConfigProvider returns a tls.Config serving the configured
// certificate. The certificate is reloaded when one of its files changes.
// Returns nil if no certificate could be loaded.
func NewTLSConfigProvider(ctx context.Context, opts TLSOptions) *tls.Config {
	c := &certs{
		ctx:  ctx,
		opts: opts,
		log:  log.GetFromContext(ctx).Named("server.certs"),
	}
	c.loadCert()
	if c.current() == nil {
		return nil
	}
	go c.watchAndReloadCerts()
	return &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return c.current(), nil
		},
		MinVersion: tls.VersionTLS13,
	}
}

func (c *certs) current() *tls.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert
}

//nolint:cyclop // by design
func (c *certs) watchAndReloadCerts() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return
	}
	defer watcher.Close()
	for _, f := range c.opts.files() {
		if err := watcher.Add(f); err != nil {
			c.log.Error("could not watch file", log.String("file", f), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-c.ctx.Done():
			c.log.Info("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				c.log.Info("watcher events channel closed, stopping cert reload")
				return
			}
			c.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Chmod == fsnotify.Chmod {

				c.log.Info("cert file changed, reloading cert",
					log.String("file", event.Name))
				c.loadCert()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				c.log.Info("watcher errors channel closed, stopping cert reload")
				return
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

// loadCert keeps the previous certificate if loading fails.
func (c *certs) loadCert() {
	var cert tls.Certificate
	var err error
	switch {
	case c.opts.TraefikCerts != "" && c.opts.TraefikDomain != "":
		c.log.Info("Looking up traefik certs",
			log.String("file", c.opts.TraefikCerts),
			log.String("domain", c.opts.TraefikDomain))
		cert, err = traefik.GetCertFromTraefik(c.opts.TraefikCerts, c.opts.TraefikDomain)
	case c.opts.CertFile != "" && c.opts.KeyFile != "":
		c.log.Info("Loading cert",
			log.String("key", c.opts.KeyFile),
			log.String("cert", c.opts.CertFile))
		cert, err = tls.LoadX509KeyPair(c.opts.CertFile, c.opts.KeyFile)
	default:
		c.log.Warn("no certificate configured")
		return
	}
	if err != nil {
		c.log.Error("could not load certificate", log.ErrorField(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
}
