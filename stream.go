package routeros

import (
	"context"
	"time"

	"github.com/ShafiqSadat/RouterOSClient/internal/observability"
	"github.com/ShafiqSadat/RouterOSClient/internal/protocol"
)

// Stream sends cmd and returns a lazy iterator over its data rows,
// decoding each as it arrives instead of buffering the reply. The
// session runs nothing else until the stream finishes: iterate to the
// end, or Close it and give the session up.
func (s *Session) Stream(ctx context.Context, cmd Command) (*Stream, error) {
	if cmd.empty() {
		return nil, ErrEmptyCommand
	}
	s.cmdMu.Lock()
	if err := s.requireReady(); err != nil {
		s.cmdMu.Unlock()
		return nil, err
	}
	if err := s.writeSentence(ctx, cmd.words()); err != nil {
		s.cmdMu.Unlock()
		return nil, err
	}
	return &Stream{session: s, command: cmd.name(), started: time.Now()}, nil
}

// Stream is a lazy reader over one command's data rows, shaped like
// database/sql rows: Next advances, Row returns the current row, Err
// reports what ended iteration, Close abandons it.
//
// A Stream is not safe for concurrent use. It holds its session's
// command lock from creation until it finishes or is closed.
type Stream struct {
	session *Session
	command string
	started time.Time

	row  Row
	rows int
	done bool
	err  error
}

// Next blocks until the next data row arrives. It returns false once
// the reply finished, failed, or the stream was closed; Err tells a
// clean end from a failed one.
func (st *Stream) Next(ctx context.Context) bool {
	if st.done {
		return false
	}
	for {
		rep, err := st.session.nextReply(ctx)
		if err != nil {
			st.finish(err)
			return false
		}
		switch rep.Kind {
		case protocol.KindRow:
			if len(rep.Row) == 0 {
				continue
			}
			st.row = Row(rep.Row)
			st.rows++
			return true
		case protocol.KindTrap:
			trap := &TrapError{Command: st.command, Message: rep.Message}
			st.drainToDone(ctx)
			st.finish(trap)
			return false
		case protocol.KindDone:
			st.finish(nil)
			return false
		default:
			continue
		}
	}
}

// Row returns the row the last successful Next produced.
func (st *Stream) Row() Row { return st.row }

// Err returns the error that ended iteration. It is nil while rows are
// still flowing, after a clean end, and after a voluntary Close.
func (st *Stream) Err() error { return st.err }

// Close abandons the stream. Walking away from an unfinished reply
// leaves the connection mid-reply with no way to find the next
// sentence boundary, so the whole session is torn down. Closing a
// finished stream does nothing. Close stays valid after the session
// itself closed and still releases the command lock.
func (st *Stream) Close() error {
	if st.done {
		return nil
	}
	st.session.forceClose("stream_abandon")
	st.finish(nil)
	return nil
}

// drainToDone consumes the rest of the reply after a trap so the
// connection stays aligned on sentence boundaries.
func (st *Stream) drainToDone(ctx context.Context) {
	for {
		rep, err := st.session.nextReply(ctx)
		if err != nil {
			return
		}
		if rep.Kind == protocol.KindDone {
			return
		}
	}
}

// finish ends iteration exactly once and releases the command lock.
func (st *Stream) finish(err error) {
	if st.done {
		return
	}
	st.done = true
	st.err = err
	observability.RecordCommand("stream", outcome(err), time.Since(st.started))
	observability.RecordReplyRows(st.rows)
	st.session.cmdMu.Unlock()
}
