package node

import (
	"net/http"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/providers/node/crawl"
	"github.com/leofalp/aigoflow/providers/node/extract"
	"github.com/leofalp/aigoflow/providers/node/httpreq"
	"github.com/leofalp/aigoflow/providers/node/input"
	"github.com/leofalp/aigoflow/providers/node/llm"
	"github.com/leofalp/aigoflow/providers/node/merger"
)

// Dependencies are the shared clients injected into node constructors.
type Dependencies struct {
	// ChatClient serves llm nodes. When nil, llm nodes are still registered
	// but fail to instantiate.
	ChatClient llm.ChatClient
	// HTTPClient serves http and crawl nodes; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// RegisterDefaults registers the built-in node types on factory and returns
// it for chaining.
func RegisterDefaults(factory *engine.Factory, deps Dependencies) *engine.Factory {
	factory.Register(merger.Type, merger.New)
	factory.Register(input.Type, input.New)
	factory.Register(extract.Type, extract.New)
	factory.Register(llm.Type, llm.NewConstructor(deps.ChatClient))
	factory.Register(httpreq.Type, httpreq.NewConstructor(deps.HTTPClient))
	factory.Register(crawl.Type, crawl.NewConstructor(deps.HTTPClient))
	return factory
}

// NewFactory returns a factory holding the group type and every default type.
func NewFactory(deps Dependencies) *engine.Factory {
	return RegisterDefaults(engine.NewFactory(), deps)
}
