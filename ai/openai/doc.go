// Package openai provides an ai.Provider backed by OpenAI-compatible HTTP APIs
// through langchaingo. It works with hosted OpenAI as well as local servers
// such as Ollama, LocalAI and vLLM.
package openai
