// Package service implements the schoolmate domain services: grade analytics,
// event listing, personalized advice, exam prediction and student records.
// Services are plain structs over storage interfaces and are safe for
// concurrent use when their stores are.
package service
