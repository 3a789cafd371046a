// Package memory is the default in-process provider: a size-bounded LRU with
// a single expiry window, backed by hashicorp/golang-lru's expirable cache.
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	pr "github.com/unkn0wn-root/querycache/provider"
)

const defaultMaxItems = 4096

type Config struct {
	MaxItems int           // 0 => 4096
	TTL      time.Duration // expiry for every entry; 0 => no expiry
}

type Provider struct {
	lru *expirable.LRU[string, []byte]
}

var _ pr.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	size := cfg.MaxItems
	if size <= 0 {
		size = defaultMaxItems
	}
	return &Provider{lru: expirable.NewLRU[string, []byte](size, nil, cfg.TTL)}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := p.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

// Set ignores cost and the per-call ttl; expiry is the window given to New.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.lru.Add(key, value)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.lru.Remove(key)
	return nil
}

func (p *Provider) Len() int { return p.lru.Len() }

func (p *Provider) Close(_ context.Context) error {
	p.lru.Purge()
	return nil
}
