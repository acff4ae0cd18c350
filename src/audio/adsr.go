package audio

// ----- ADSR Runner ----- //

const (
	stateAttack = iota + 1
	stateDecayForwards
	stateDecayBackwards
	stateSustain
	stateSustainInterpolation
	stateRelease
	stateStop
	stateComplete
)

const interpolationSeconds = 0.005

/*
	1 +    x
	  |   / \          (decay loop)
	  |  /   \      ,--.,--.
	s + /     x----'         x------x
	  |/                             \
	0 +-----+-----+--------+-------+--x
	  |attack|decay|       |sustain|release|complete
*/
type adsrRunner struct {
	setting       *EnvelopeSetting
	curve         curve
	state         int
	remaining     int
	interpolation int
	value         float64
	version       uint32
}

func (r *adsrRunner) init(setting *EnvelopeSetting, sampleRate float64) {
	r.setting = setting
	r.interpolation = int(interpolationSeconds * sampleRate)
	r.value = 0
	r.version = setting.Version
	r.state = stateAttack
	r.curve.byBend(float64(setting.AttackFrames), 0, setting.AttackBend, 1)
	r.remaining = int(setting.AttackFrames)
	r.settle()
}

func (r *adsrRunner) releaseGate() {
	s := r.setting
	if !s.ReleaseEnabled {
		return
	}
	switch r.state {
	case stateAttack, stateDecayForwards, stateDecayBackwards, stateSustain, stateSustainInterpolation:
		r.curve.byBend(float64(s.ReleaseFrames), r.value, s.ReleaseBend, 0)
		r.state = stateRelease
		r.remaining = int(s.ReleaseFrames)
		r.settle()
	}
}

func (r *adsrRunner) releaseImmediately() {
	switch r.state {
	case stateStop, stateComplete:
		return
	}
	r.curve.byBend(float64(r.interpolation), r.value, 0.5, 0)
	r.state = stateStop
	r.remaining = r.interpolation
	r.settle()
}

// process writes n values into buf starting at offset.
func (r *adsrRunner) process(buf []float64, n int, offset int) {
	if r.version != r.setting.Version {
		r.version = r.setting.Version
		r.reTarget()
	}
	for index := 0; index < n; {
		if r.state == stateSustain || r.state == stateComplete {
			for ; index < n; index++ {
				buf[offset+index] = r.value
			}
			break
		}
		stop := index + r.remaining
		if stop > n {
			stop = n
		}
		multiplier := r.curve.multiplier
		delta := r.curve.delta
		value := r.value
		for i := index; i < stop; i++ {
			value = value*multiplier + delta
			buf[offset+i] = value
		}
		r.value = value
		r.remaining -= stop - index
		index = stop
		if r.remaining == 0 {
			r.switchPhase()
			r.settle()
		}
	}
}

// settle passes through segments that have no frames left.
func (r *adsrRunner) settle() {
	for r.remaining == 0 && r.state != stateSustain && r.state != stateComplete {
		r.switchPhase()
	}
}

func (r *adsrRunner) switchPhase() {
	s := r.setting
	switch r.state {
	case stateAttack:
		r.value = 1
		r.state = stateDecayForwards
		r.curve.byBend(float64(s.DecayFrames), 1, s.DecayBend, s.SustainValue)
		r.remaining = int(s.DecayFrames)
	case stateDecayForwards:
		if s.DecayLoop && s.DecayFrames > 0 {
			r.value = s.SustainValue
			r.state = stateDecayBackwards
			r.curve.byBend(float64(s.DecayFrames), s.SustainValue, s.DecayBend, 1)
			r.remaining = int(s.DecayFrames)
		} else {
			r.endDecay()
		}
	case stateDecayBackwards:
		if s.DecayLoop && s.DecayFrames > 0 {
			r.value = 1
			r.state = stateDecayForwards
			r.curve.byBend(float64(s.DecayFrames), 1, s.DecayBend, s.SustainValue)
			r.remaining = int(s.DecayFrames)
		} else {
			r.endDecay()
		}
	case stateSustainInterpolation:
		r.state = stateSustain
		r.value = s.SustainValue
		r.remaining = 0
	case stateRelease, stateStop:
		r.value = 0
		r.state = stateComplete
		r.remaining = 0
	}
}

// endDecay holds the sustain level. Without a release stage the envelope is
// one-shot and completes here, keeping its level.
func (r *adsrRunner) endDecay() {
	r.value = r.setting.SustainValue
	r.remaining = 0
	if r.setting.ReleaseEnabled {
		r.state = stateSustain
	} else {
		r.state = stateComplete
	}
}

func (r *adsrRunner) reTarget() {
	switch r.state {
	case stateSustain, stateSustainInterpolation:
		r.state = stateSustainInterpolation
		r.curve.byBend(float64(r.interpolation), r.value, 0.5, r.setting.SustainValue)
		r.remaining = r.interpolation
		r.settle()
	}
}

func (r *adsrRunner) running() bool {
	return r.state != stateComplete
}
