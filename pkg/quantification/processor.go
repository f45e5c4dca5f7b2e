// Package quantification turns image sets into axial intensity profiles.
//
// Each set is segmented on its dapi channel, rotated so the specimen's major axis
// is horizontal, mirrored so the green marker sits on the left, and reduced to one
// column-sum profile per channel resampled to models.ProfileLength samples.
package quantification

import (
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"gastruloid/internal/logger"
	"gastruloid/internal/models"
	"gastruloid/pkg/imaging"
	"gastruloid/pkg/visualization"
)

const component = "processor"

// DefaultClosingRadius is the radius of the disk used to merge nearby foreground
const DefaultClosingRadius = 25

// greenThresholdFactor scales the mean non-zero green intensity into the binarization threshold
const greenThresholdFactor = 4.0 / 255.0

// Params holds the inputs shared by every set of a run
type Params struct {
	// Directory holds the channel images
	Directory string

	// BaseName prefixes every set name: "{BaseName}_{index}"
	BaseName string

	// Channels maps each configured channel role to its filename suffix
	Channels models.ChannelMap

	// MinBlobSize is the smallest segmented component kept, in pixels
	MinBlobSize int

	// ClosingRadius is the disk radius of the morphological closing.
	// Zero selects DefaultClosingRadius.
	ClosingRadius int

	// Workers is the number of sets processed concurrently. Values below 2 keep
	// the run sequential.
	Workers int

	// SaveIntermediaryResults writes a montage of the aligned channels per set
	SaveIntermediaryResults bool

	// IntermediaryDir is where montages are written
	IntermediaryDir string
}

// Observer receives per-set measurements. It must be safe for concurrent use.
type Observer interface {
	SetProcessed(status models.SetStatus, elapsed time.Duration)
	MissingFile(channel models.Channel)
}

// Processor runs the single-set pipeline and assembles the results of a batch
type Processor struct {
	params   *Params
	log      logger.Logger
	observer Observer
}

// NewProcessor creates a processor. A nil logger discards output.
func NewProcessor(params *Params, log logger.Logger) *Processor {
	if log == nil {
		log = logger.NullLogger{}
	}
	return &Processor{params: params, log: log}
}

// SetObserver registers an observer for per-set measurements
func (p *Processor) SetObserver(o Observer) {
	p.observer = o
}

func (p *Processor) closingRadius() int {
	if p.params.ClosingRadius > 0 {
		return p.params.ClosingRadius
	}
	return DefaultClosingRadius
}

// ProcessAll processes sets 1..numSets and returns one record per set, in index
// order, together with the per-channel profile matrices. Segmentation failures
// become degraded records; only run-level errors such as an undecodable image
// are returned.
func (p *Processor) ProcessAll(numSets int) (*models.Results, error) {
	results := &models.Results{Sets: make([]models.SetResult, numSets)}
	if numSets == 0 {
		return results, nil
	}

	if p.params.SaveIntermediaryResults {
		if err := os.MkdirAll(p.params.IntermediaryDir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create intermediary directory")
		}
	}

	var err error
	if p.params.Workers > 1 && numSets > 1 {
		err = p.processParallel(results.Sets)
	} else {
		err = p.processSequential(results.Sets)
	}
	if err != nil {
		return nil, err
	}

	for _, c := range models.Channels {
		m := mat.NewDense(numSets, models.ProfileLength, nil)
		for i, s := range results.Sets {
			m.SetRow(i, s.Profiles[c])
		}
		results.Matrices[c] = m
	}

	return results, nil
}

func (p *Processor) processSequential(out []models.SetResult) error {
	for i := range out {
		res, err := p.ProcessSet(i + 1)
		if err != nil {
			return err
		}
		out[i] = res
	}
	return nil
}

// processParallel fans sets out to a fixed pool and stores each result at its
// set's row so the output order matches the sequential run.
func (p *Processor) processParallel(out []models.SetResult) error {
	type setOutcome struct {
		index  int
		result models.SetResult
		err    error
	}

	jobs := make(chan int)
	outcomes := make(chan setOutcome, len(out))

	workers := min(p.params.Workers, len(out))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				res, err := p.ProcessSet(index)
				outcomes <- setOutcome{index: index, result: res, err: err}
			}
		}()
	}

	for i := 1; i <= len(out); i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	var firstErr error
	for o := range outcomes {
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		out[o.index-1] = o.result
	}
	return firstErr
}

// ProcessSet runs the full pipeline for the set with the given 1-based index
func (p *Processor) ProcessSet(index int) (models.SetResult, error) {
	start := time.Now()
	name := models.SetName(p.params.BaseName, index)

	set, err := p.loadSet(index, name)
	if err != nil {
		return models.SetResult{}, err
	}

	res, err := p.quantify(set)
	if err != nil {
		return models.SetResult{}, err
	}

	if res.Status == models.StatusDegraded {
		p.log.Warning(component, "set degraded to zero profiles", map[string]interface{}{
			"set":    name,
			"reason": res.Reason,
		})
	} else {
		p.log.Debug(component, "set processed", map[string]interface{}{
			"set":     name,
			"elapsed": time.Since(start).String(),
		})
	}

	if p.observer != nil {
		p.observer.SetProcessed(res.Status, time.Since(start))
	}
	return res, nil
}

// loadSet decodes every configured channel of a set. Missing files are replaced
// by a placeholder; any other failure is returned.
func (p *Processor) loadSet(index int, name string) (*models.ImageSet, error) {
	set := &models.ImageSet{Name: name, Index: index}

	for _, c := range models.Channels {
		if !p.params.Channels.Has(c) {
			continue
		}

		path := models.ChannelFile(p.params.Directory, name, p.params.Channels[c])
		img, err := imaging.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			p.log.Warning(component, "channel image missing, using placeholder", map[string]interface{}{
				"set":     name,
				"channel": c.String(),
				"path":    path,
			})
			if p.observer != nil {
				p.observer.MissingFile(c)
			}
			set.Images[c] = imaging.Placeholder()
			set.Missing = append(set.Missing, c)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "set %s, channel %s", name, c)
		}
		set.Images[c] = img
	}

	return set, nil
}

// clean fills holes, closes gaps and drops components below the blob size
func (p *Processor) clean(m *imaging.Mask) *imaging.Mask {
	m = imaging.FillHoles(m)
	m = imaging.Close(m, p.closingRadius())
	return imaging.RemoveSmallObjects(m, p.params.MinBlobSize)
}

func (p *Processor) quantify(set *models.ImageSet) (models.SetResult, error) {
	// Reference segmentation and alignment
	dapi := imaging.ToPlane(set.Image(models.Dapi))
	mask := p.clean(imaging.Threshold(dapi, imaging.OtsuThreshold(dapi)))

	specimen, ok := imaging.Largest(imaging.MeasureRegions(mask))
	if !ok {
		return models.Degraded(set.Index, set.Name, "no object found in dapi channel"), nil
	}

	angle := specimen.Orientation()
	var aligned [models.NumChannels]image.Image
	for c, img := range set.Images {
		if img != nil {
			aligned[c] = imaging.Rotate(img, -angle)
		}
	}

	// Anterior-posterior registration on the green marker
	green := imaging.ToPlane(aligned[models.Green])
	mean, ok := imaging.NonZeroMean(green)
	if !ok {
		return models.Degraded(set.Index, set.Name, "green channel is empty"), nil
	}
	greenMask := p.clean(imaging.Threshold(green, mean*greenThresholdFactor))
	marker, ok := imaging.Largest(imaging.MeasureRegions(greenMask))
	if !ok {
		return models.Degraded(set.Index, set.Name, "no object found in green channel"), nil
	}

	if marker.CentroidX/float64(green.Width) > 0.5 {
		for c, img := range aligned {
			if img != nil {
				aligned[c] = imaging.FlipHorizontal(img)
			}
		}
	}

	if p.params.SaveIntermediaryResults {
		if err := p.saveMontage(set.Name, aligned); err != nil {
			p.log.Warning(component, "failed to save aligned montage", map[string]interface{}{
				"set":   set.Name,
				"error": err.Error(),
			})
		}
	}

	profiles := models.ZeroProfiles()
	for c, img := range aligned {
		if img == nil {
			continue
		}
		profile, err := channelProfile(img)
		if err != nil {
			return models.SetResult{}, errors.Wrapf(err, "set %s, channel %s", set.Name, models.Channel(c))
		}
		profiles[c] = profile
	}

	return models.Success(set.Index, set.Name, profiles), nil
}

// channelProfile sums the intensity of each column of the channel's widest
// non-zero component and resamples the sums along the normalized axis.
func channelProfile(img image.Image) (models.IntensityProfile, error) {
	plane := imaging.ToPlane(img)
	region, ok := imaging.LargestBBox(imaging.MeasureRegions(imaging.Threshold(plane, 0)))
	if !ok {
		return models.NewZeroProfile(), nil
	}
	return toProfile(imaging.ColumnSums(plane, region.BBox()))
}

func (p *Processor) saveMontage(name string, aligned [models.NumChannels]image.Image) error {
	images := make([]image.Image, 0, models.NumChannels)
	for _, img := range aligned {
		if img != nil {
			images = append(images, img)
		}
	}

	filename := filepath.Join(p.params.IntermediaryDir, fmt.Sprintf("%s_aligned.png", name))
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create montage file")
	}
	defer file.Close()

	if err := png.Encode(file, visualization.Montage(images)); err != nil {
		return errors.Wrap(err, "failed to encode montage")
	}
	return nil
}
