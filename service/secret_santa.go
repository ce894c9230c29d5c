package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/storage"
)

// ErrPairingFailed is returned when no valid gift assignment was found
// within the attempt budget.
var ErrPairingFailed = errors.New("could not generate secret santa pairs")

// SantaPair assigns one giver to one receiver.
type SantaPair struct {
	GiverID      string `json:"giver_id"`
	GiverName    string `json:"giver_name"`
	ReceiverID   string `json:"receiver_id"`
	ReceiverName string `json:"receiver_name"`
}

// SecretSantaOptions configures a SecretSanta.
type SecretSantaOptions struct {
	// MaxAttempts bounds the number of shuffles tried.
	MaxAttempts int
	// Shuffle permutes n elements via swap (defaults to math/rand/v2).
	Shuffle func(n int, swap func(i, j int))
	Logger  logging.Logger
}

// SecretSanta draws gift pairs among students.
type SecretSanta struct {
	students    storage.StudentStore
	maxAttempts int
	shuffle     func(n int, swap func(i, j int))
	logger      logging.Logger
}

// NewSecretSanta creates a pairing service.
func NewSecretSanta(students storage.StudentStore, optFns ...func(o *SecretSantaOptions)) *SecretSanta {
	opts := SecretSantaOptions{
		MaxAttempts: 100,
		Shuffle:     rand.Shuffle,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &SecretSanta{
		students:    students,
		maxAttempts: opts.MaxAttempts,
		shuffle:     opts.Shuffle,
		logger:      opts.Logger,
	}
}

// Generate pairs every known student in ids with exactly one receiver so that
// nobody draws themselves. Unknown ids are skipped and duplicates collapse.
func (s *SecretSanta) Generate(ctx context.Context, ids []string) ([]SantaPair, error) {
	if len(ids) < 2 {
		return nil, invalid("at least 2 students are required")
	}

	seen := make(map[string]bool, len(ids))
	participants := make([]storage.Student, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		st, err := s.students.GetStudent(ctx, id)
		if err != nil {
			if isNotFound(err) {
				s.logger.Warn("secret_santa.student.skipped", "student_id", id)
				continue
			}
			return nil, fmt.Errorf("secret santa: %w", err)
		}
		participants = append(participants, st)
	}
	if len(participants) < 2 {
		return nil, invalid("not enough valid students to generate pairs")
	}

	receivers := make([]int, len(participants))
	for i := range receivers {
		receivers[i] = i
	}
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.shuffle(len(receivers), func(i, j int) { receivers[i], receivers[j] = receivers[j], receivers[i] })
		if !isDerangement(receivers) {
			continue
		}
		pairs := make([]SantaPair, len(participants))
		for i, giver := range participants {
			receiver := participants[receivers[i]]
			pairs[i] = SantaPair{
				GiverID:      giver.ID,
				GiverName:    giver.Name,
				ReceiverID:   receiver.ID,
				ReceiverName: receiver.Name,
			}
		}
		s.logger.Debug("secret_santa.generated", "participants", len(participants), "attempts", attempt)
		return pairs, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrPairingFailed, s.maxAttempts)
}

// isDerangement reports whether no position maps to itself.
func isDerangement(perm []int) bool {
	for i, p := range perm {
		if i == p {
			return false
		}
	}
	return true
}
