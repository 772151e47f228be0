// Package generate asks a language model for a new UI tree.
//
// The pipeline picks the data sources relevant to a prompt, fetches them, describes
// the component catalog and the density limits to the model, and treats the reply as
// untrusted input: fences are stripped, the JSON is parsed strictly and the tree is
// validated. Validation issues are reported but do not block rendering; the
// interpreter degrades gracefully on whatever slips through.
package generate
