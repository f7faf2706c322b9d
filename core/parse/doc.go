// Package parse turns loosely formatted text into structured values. LLM
// replies and scraped payloads often wrap JSON in prose or markdown fences, or
// carry small syntax errors, so decoding goes through candidate extraction and
// jsonrepair before giving up.
//
// [ParseJSON] decodes into an untyped value (maps, slices, scalars) and is what
// the llm and extract nodes use. [ParseStringAs] decodes into a concrete type
// and also handles primitive conversions.
package parse
