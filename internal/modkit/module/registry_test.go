package module

import (
	"testing"

	phttp "citypulse/internal/platform/net/http"
)

type greeter interface{ Greet() string }

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

type moduleWithPorts struct{ ports any }

func (moduleWithPorts) MountRoutes(phttp.Router) {}
func (m moduleWithPorts) Ports() any             { return m.ports }
func (moduleWithPorts) Name() string             { return "fake" }

func TestRegistry_RegisterAndFetch(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("greetings", englishGreeter{})

	g, ok := PortsAs[greeter]("greetings")
	if !ok {
		t.Fatalf("expected ports for registered module")
	}
	if g.Greet() != "hello" {
		t.Fatalf("unexpected greeting %q", g.Greet())
	}

	if _, ok := PortsAs[greeter]("missing"); ok {
		t.Fatalf("expected miss for unregistered module")
	}
}

func TestPortsOf_DirectAndStructField(t *testing.T) {
	t.Parallel()

	type bundle struct{ G greeter }

	// direct implement
	if g, ok := PortsOf[greeter](moduleWithPorts{englishGreeter{}}); !ok || g.Greet() != "hello" {
		t.Fatalf("direct ports lookup failed")
	}

	// exported struct field
	if g, ok := PortsOf[greeter](moduleWithPorts{bundle{G: englishGreeter{}}}); !ok || g.Greet() != "hello" {
		t.Fatalf("struct field ports lookup failed")
	}

	// nothing matches
	if _, ok := PortsOf[greeter](moduleWithPorts{nil}); ok {
		t.Fatalf("expected miss for nil ports")
	}
}

func TestMustPortsOf_PanicsOnMiss(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustPortsOf[greeter](moduleWithPorts{nil})
}
