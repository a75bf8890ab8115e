/*
 * sentinel.go, part of confscan.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package sentinel turns the appearance of a file (by default "stop" in the
//working directory) into the cancellation of a context, so a long run can be
//ended cleanly from outside.
package sentinel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//DefaultPoll is how often the file is looked for when file system events are
//not available (or get lost).
const DefaultPoll = 2 * time.Second

//Sentinel watches for a stop file.
type Sentinel struct {
	path      string
	log       logrus.FieldLogger
	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc
	poll      time.Duration
	once      sync.Once
	triggered chan struct{}
	done      chan struct{}
}

//Exists returns true if the file path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

//Clear removes a stop file left behind by a previous run. It is not
//an error if there is none.
func Clear(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "removing stop file %s", path)
}

//Watch returns a context derived from parent that is cancelled as soon as the
//file path exists, and the Sentinel that watches it. The file is looked for both
//through file system notifications on its directory and by polling every poll
//(DefaultPoll if poll <= 0). Stop must be called to release the watcher.
func Watch(parent context.Context, path string, poll time.Duration, log logrus.FieldLogger) (context.Context, *Sentinel, error) {
	if poll <= 0 {
		poll = DefaultPoll
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "stop file %s", path)
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	ctx, cancel := context.WithCancel(parent)
	S := &Sentinel{
		path:      abs,
		log:       log.WithField("stopfile", abs),
		cancel:    cancel,
		poll:      poll,
		triggered: make(chan struct{}),
		done:      make(chan struct{}),
	}
	S.watcher, err = fsnotify.NewWatcher()
	if err == nil {
		err = S.watcher.Add(filepath.Dir(abs))
	}
	if err != nil {
		//polling still works
		S.log.WithError(err).Warn("file system notifications not available")
		if S.watcher != nil {
			S.watcher.Close()
			S.watcher = nil
		}
	}
	if Exists(abs) {
		S.trigger()
	}
	go S.loop(ctx)
	return ctx, S, nil
}

func (S *Sentinel) trigger() {
	S.once.Do(func() {
		S.log.Warn("stop file found, finishing the current step")
		close(S.triggered)
		S.cancel()
	})
}

func (S *Sentinel) loop(ctx context.Context) {
	defer close(S.done)
	ticker := time.NewTicker(S.poll)
	defer ticker.Stop()
	var events chan fsnotify.Event
	var errs chan error
	if S.watcher != nil {
		events = S.watcher.Events
		errs = S.watcher.Errors
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && filepath.Clean(ev.Name) == S.path {
				S.trigger()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			S.log.WithError(err).Debug("watcher error")
		case <-ticker.C:
			if Exists(S.path) {
				S.trigger()
			}
		}
	}
}

//Triggered returns true if the stop file was found.
func (S *Sentinel) Triggered() bool {
	select {
	case <-S.triggered:
		return true
	default:
		return false
	}
}

//Path returns the absolute path of the stop file.
func (S *Sentinel) Path() string {
	return S.path
}

//Stop releases the watcher and cancels the context returned by Watch.
func (S *Sentinel) Stop() error {
	S.cancel()
	<-S.done
	if S.watcher != nil {
		return errors.Wrap(S.watcher.Close(), "closing stop file watcher")
	}
	return nil
}
