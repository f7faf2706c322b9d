// Package llm implements the "llm" node, which sends a prompt built from its
// input to an OpenAI-compatible chat completion endpoint and emits the reply
// as text or as parsed JSON.
//
// The node talks to the endpoint through [ChatClient], satisfied by
// *openai.Client from github.com/sashabaranov/go-openai, so any compatible
// server (OpenAI, Ollama, vLLM, a test double) can be used.
package llm
