// Package config provides the configuration of ragcrawl: defaults,
// validation, and the optional YAML configuration file.
//
// Settings are resolved in three layers. NewConfig supplies defaults, the
// configuration file (.ragcrawl) overrides them per site and for the RAG
// settings, and CLI flags the user set explicitly override both.
//
// Example .ragcrawl:
//
//	defaults:
//	  depth: 2
//	sites:
//	  docs.example.com:
//	    allowedPrefixes: ["https://docs.example.com/guide"]
//	    contentFilter: '(?s)<main>(?P<content>.*)</main>'
//	rag:
//	  collection: example-docs
//	  store: qdrant
//	  qdrantURL: http://localhost:6333
package config
