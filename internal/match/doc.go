// Package match ranks field names by edit distance so semantic errors can
// suggest the field a chain most likely meant.
package match
