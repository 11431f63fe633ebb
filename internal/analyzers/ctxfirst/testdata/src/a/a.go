package a

import "context"

func Good(ctx context.Context, name string) {}

func NoContext(name string, n int) {}

func Bad(name string, ctx context.Context) {} // want "context.Context should be the first parameter"

func Grouped(a, b int, ctx context.Context) {} // want "context.Context should be the first parameter"

type Probe struct{}

func (Probe) Check(ctx context.Context) error { return nil }

func (Probe) Run(name string, ctx context.Context) error { return nil } // want "context.Context should be the first parameter"

var hook = func(id string, ctx context.Context) {} // want "context.Context should be the first parameter"

type Loop func(ctx context.Context, interval int)
