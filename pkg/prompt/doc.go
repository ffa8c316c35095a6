// Package prompt turns extracted document fields into a quiz prompt, sends
// it to a generative language model and maps the reply back onto the form
// as question labels. Runs are observable through the prompt-* events.
package prompt
