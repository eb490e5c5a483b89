// Package extractors turns job postings and resumes stored as files
// into plain text for the LLM extraction prompts. Each extractor handles
// a set of MIME types; the Registry picks one by MIME type or file extension.
package extractors
