// FILE: lixenwraith/dotenv/doc.go

// Package dotenv loads typed configuration from dotenv files and guards it with
// declarative per-key validation rules evaluated before any read.
//
// Features:
//   - Forgiving dotenv syntax: comments, single and double quotes, escapes,
//     multi-line quoted values, CRLF and BOM tolerant
//   - Typed values: bool, null, int, float and string coercion of raw text
//   - Back-references with ${NAME} and {$NAME}, escaped as \${NAME}
//   - Fluent rule engine: Required/IfPresent selections with type, allowed-set,
//     non-empty, date-time, custom and expression rules
//   - Lazy validation cached until the next data or rule change
//   - Directory and file sources, TOML/JSON/YAML data sources, msgpack cache
//   - Environment registration through an injectable Sink
//   - Struct decoding, source watching, export to dotenv/json/yaml/toml
//
// Quick Start:
//
//	store, err := dotenv.Quick("./config", "DB_HOST")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	host, _ := store.Get("DB_HOST")
//
// Rules:
//
//	store := dotenv.NewStore()
//	store.Required("DB_PORT").IsInteger()
//	store.IfPresent("LOG_LEVEL").AllowedValues("debug", "info", "warn")
//	if err := store.SetWorkDir("./config"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.ReadEnv(ctx, time.Minute); err != nil {
//	    log.Fatal(err)
//	}
//	port, err := store.Get("DB_PORT") // validates once, then reads
//
// Parsing is a pure function; see Parse, Lines and Lex.
//
// Thread Safety:
// Store, Validator and MapSink are safe for concurrent use. The store uses a
// read-write mutex; validation runs under the write lock.
package dotenv
