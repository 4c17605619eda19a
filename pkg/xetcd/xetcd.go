// Package xetcd looks up shared service addresses in etcd.
package xetcd

import (
	"context"
	"errors"
	"strings"
	"time"

	"trademan/pkg/config"
	"trademan/pkg/xlog"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type Worker struct {
	Cli *clientv3.Client
}

var Shared *Worker
var logger = xlog.GetLogger()

var ErrNotFound = errors.New("not found")

func New(urls []string) (w *Worker, err error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   urls,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return
	}

	w = &Worker{
		Cli: cli,
	}

	return
}

func InitShared(urls []string) (err error) {
	Shared, err = New(urls)
	return
}

func (w *Worker) Get(ctx context.Context, k string) (v string, err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)

	defer func() {
		if err != nil {
			logger.Errorf("xetcd Get k:%s failed with err:%s", k, err)
		} else {
			logger.Debugf("xetcd Get k:%s, v:%s", k, v)
		}
		cancel()
	}()

	r, err := w.Cli.Get(ctx, k)
	if err != nil {
		return
	}
	if r.Kvs == nil || r.Count == 0 {
		err = ErrNotFound
		return
	}

	v = string(r.Kvs[0].Value)
	return
}

func (w *Worker) Put(ctx context.Context, k string, v string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)

	defer func() {
		if err != nil {
			logger.Errorf("xetcd Put k:%s, v:%s failed with err:%s", k, v, err)
		} else {
			logger.Debugf("xetcd Put k:%s, v:%s", k, v)
		}
		cancel()
	}()

	_, err = w.Cli.Put(ctx, k, v)
	return
}

func (w *Worker) Close() error {
	return w.Cli.Close()
}

// KeyNatsService is where the nats url of a subject prefix is published.
func KeyNatsService(prefix string) string {
	return "nats_" + strings.ToLower(prefix)
}

// NatsURL returns the nats url published in etcd when etcd is enabled, otherwise the
// configured one. A failed lookup also falls back to the configured url.
func NatsURL(ctx context.Context, cfg *config.Config) string {
	if !cfg.Etcd.Main.Enable || cfg.Etcd.Main.Url == "" {
		return cfg.Nats.Url
	}

	w := Shared
	if w == nil {
		var err error
		w, err = New(strings.Split(cfg.Etcd.Main.Url, ","))
		if err != nil {
			logger.Warningf("etcd %s unavailable, use nats url %s, err:%s", cfg.Etcd.Main.Url, cfg.Nats.Url, err)
			return cfg.Nats.Url
		}
		defer w.Close()
	}

	url, err := w.Get(ctx, KeyNatsService(cfg.Nats.SubjectPrefix))
	if err != nil || url == "" {
		return cfg.Nats.Url
	}
	return url
}
