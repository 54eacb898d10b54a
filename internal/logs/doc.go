// Package logs reads the daemon log file for the "board logs" command.
//
// Reads are bounded: the last N lines are collected with a ring buffer and
// follow mode polls from a byte offset, so a large log never loads whole.
package logs
