// Package jobs holds the registered job functions: make, clang_parse,
// add_context, print_error, print_success, and correct. Each is
// registered with internal/registry in its own init() and grounded on
// the matching file under original_source/src/jobs/.
package jobs
