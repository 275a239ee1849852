// Package exec interprets rule plans against live values.
//
// A Machine runs the ops of every plan over registers, a stack of open
// iterations and a stack of target frames. Target descent starts over from
// the target root for every written value; values that cannot be changed in
// place are entered as copies and written back after the terminal write.
// Map and set entries are buffered per map and flushed once all rules ran,
// so rules can fill the key and the value of one entry separately.
package exec
