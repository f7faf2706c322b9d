// Package extract implements the "extract" node, which pulls values out of
// its input: a dot path over JSON data (with "*" fanning out over lists), a
// regular expression over text, or tags and attributes of an HTML document.
package extract
