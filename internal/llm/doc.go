// Package llm wraps a chat model for question answering over retrieved
// context.
//
// Chat builds the CONTEXT/QUESTION/INSTRUCTIONS prompt, keeps the
// conversation history and produces hypothetical answers for HyDE
// retrieval. Any langchaingo model can serve as its Generator.
package llm
