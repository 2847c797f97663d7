package camera

import (
	"image"
	"sync"
	"time"

	"camclassify/processing/media"

	"go.uber.org/zap"
)

// Player drains one stream: it keeps the latest frame, forwards frames to the
// sink and measures FPS.
type Player struct {
	stream   media.Stream
	sink     func(image.Image)
	onError  func(error)
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu        sync.RWMutex
	lastFrame image.Image
	fps       uint
}

// newPlayer builds a player for stream. onError runs on the player goroutine
// when the stream fails, just before the loop exits.
func newPlayer(stream media.Stream, sink func(image.Image), onError func(error), logger *zap.Logger) *Player {
	return &Player{
		stream:   stream,
		sink:     sink,
		onError:  onError,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *Player) Start() {
	go p.run()
}

func (p *Player) run() {
	defer close(p.done)

	var frameCount uint = 0
	lastFpsUpdate := time.Now()

	frames := p.stream.FrameChan()
	errs := p.stream.ErrorChan()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				// The source reports its failure before closing frames.
				select {
				case err, ok := <-errs:
					if ok && err != nil {
						p.fail(err)
					}
				default:
				}
				return
			}
			if frame == nil {
				continue
			}

			p.mu.Lock()
			p.lastFrame = frame
			p.mu.Unlock()

			if p.sink != nil {
				p.sink(frame)
			}

			frameCount++
			if time.Since(lastFpsUpdate) >= time.Second {
				p.mu.Lock()
				p.fps = frameCount
				p.mu.Unlock()
				frameCount = 0
				lastFpsUpdate = time.Now()
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.fail(err)
			return

		case <-p.stopChan:
			return
		}
	}
}

func (p *Player) fail(err error) {
	select {
	case <-p.stopChan:
		return
	default:
	}

	p.logger.Error("stream error", zap.Error(err))
	if p.onError != nil {
		p.onError(err)
	}
}

// Stop ends the loop and waits for it to exit. The sink is never called
// after Stop returns.
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	<-p.done
}

func (p *Player) LastFrame() image.Image {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastFrame
}

func (p *Player) FPS() uint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fps
}
