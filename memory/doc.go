// Package memory holds conversation state for multi-turn pipelines.
//
// Memory is always owned by the caller: pipelines never keep history
// themselves. A History is a plain message buffer with token-budget
// windowing; a Summary keeps recent turns verbatim and folds older ones into
// a running summary written by a model. Conversation wires either one around
// a model stage. Store persists sessions between runs; MemoryStore keeps them
// in process and the sqlite subpackage keeps them on disk.
package memory
