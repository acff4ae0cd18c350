package audio

import (
	"math"
)

// ----- Table Reader ----- //

// readTable plays a table set at the frequencies in freqMod scaled by freqMult,
// mixing the two nearest bands. phase is in cycles and the updated phase is
// returned.
func (p *Processor) readTable(out []float64, set *TableSet, freqMod []float64, freqMult float64, phase float64) float64 {
	l := p.layout
	maxIndex := l.Count() - 1
	mask := l.Size - 1
	loop := p.loopCycles
	sampleRateInverse := 1.0 / p.sampleRate
	for i := range out {
		frequency := freqMod[i] * freqMult
		index0 := l.Index(frequency)
		if index0 > float64(maxIndex) {
			out[i] = 0
		} else {
			indexInt0 := int(index0)
			indexInt1 := indexInt0 + 1
			gain1 := index0 - float64(indexInt0)
			gain0 := 1.0 - gain1
			a := hermite(set.Tables[indexInt0], phase*l.rates[indexInt0], mask)
			if indexInt1 > maxIndex {
				out[i] = a * gain0
			} else {
				b := hermite(set.Tables[indexInt1], phase*l.rates[indexInt1], mask)
				out[i] = a*gain0 + b*gain1
			}
		}
		phase += frequency * sampleRateInverse
		if phase >= loop {
			phase -= loop
		}
	}
	return phase
}

// ----- Pad Voice ----- //

// PadVoice plays two table sets (A and B), each through a detuned stereo pair.
// Voices are pooled by the Processor.
type PadVoice struct {
	p              *Processor
	note           int
	frequency      float64
	frequencyShift float64
	velocity       float64
	gain           float64
	trackingAmount float64
	phases         [4]float64
	freqMultiplier [4]float64
	envA           adsrRunner
	envB           adsrRunner
	lfo            lfoRunner
}

var _ Voice = (*PadVoice)(nil)

func (v *PadVoice) init(p *Processor, time float64, note int, velocity float64) {
	v.p = p
	v.note = note
	loop := p.loopCycles
	phase := p.random.Float() * loop
	stereo := p.preset.Stereo
	phaseShift := 0.0
	if stereo <= 0.5 {
		phaseShift = stereo * float64(p.layout.Size) * 0.5
	}
	v.frequencyShift = 1.0
	if stereo > 0.5 {
		v.frequencyShift = math.Pow(2.0, (stereo-0.5)*2.0)
	}
	v.frequency = MidiToFrequency(float64(note), baseFreq)
	v.phases[0] = phase
	v.phases[2] = phase
	v.phases[1] = math.Mod(phase+phaseShift, loop)
	v.phases[3] = v.phases[1]

	v.envA.init(&p.envSettingA, p.sampleRate)
	v.envB.init(&p.envSettingB, p.sampleRate)
	v.lfo.init(&p.lfoSetting, p.sampleRate)
	v.lfo.setTime(time)

	s := &p.preset
	v.gain = (s.VelocityToVolume*velocity + (1.0 - s.VelocityToVolume)) * DbToGain(s.MasterVolume)
	v.velocity = velocity
	v.trackingAmount = clamp(-1.0, 1.0, (float64(note)-60.0)/36.0) * s.KeyboardToBlend
}

// Note ...
func (v *PadVoice) Note() int {
	return v.note
}

// Release ...
func (v *PadVoice) Release() {
	v.envA.releaseGate()
	v.envB.releaseGate()
}

// ReleaseImmediately ...
func (v *PadVoice) ReleaseImmediately() {
	v.envA.releaseImmediately()
	v.envB.releaseImmediately()
}

// Process ...
func (v *PadVoice) Process(left, right []float32, from, to int) bool {
	p := v.p
	s := &p.preset
	n := to - from
	envBufferA := p.envBufferA[:n]
	envBufferB := p.envBufferB[:n]
	lfoBuffer := p.lfoBuffer[:n]
	freqMod := p.freqMod[:n]

	v.envA.process(envBufferA, n, 0)
	v.envB.process(envBufferB, n, 0)
	v.lfo.process(lfoBuffer, envBufferB, s.EnvBToLfoRate)

	envBToLfoAmount := s.EnvBToLfoAmount
	if envBToLfoAmount >= 0 {
		for i := range lfoBuffer {
			lfoBuffer[i] *= envBufferB[i]*envBToLfoAmount + (1.0 - envBToLfoAmount)
		}
	} else {
		for i := range lfoBuffer {
			lfoBuffer[i] *= (envBufferB[i]-1.0)*envBToLfoAmount + (1.0 + envBToLfoAmount)
		}
	}
	for i := range freqMod {
		freqMod[i] = v.frequency * math.Pow(2.0, s.LfoToPitch*lfoBuffer[i]+s.EnvBToPitch*envBufferB[i])
	}

	tuneA := math.Pow(2.0, s.TuneA+s.Tune)
	tuneB := math.Pow(2.0, s.TuneB+s.Tune)
	v.freqMultiplier[0] = tuneA * v.frequencyShift
	v.freqMultiplier[1] = tuneA / v.frequencyShift
	v.freqMultiplier[2] = tuneB * v.frequencyShift
	v.freqMultiplier[3] = tuneB / v.frequencyShift

	for slot := 0; slot < 2; slot++ {
		i0 := slot << 1
		i1 := i0 + 1
		current := p.current[slot]
		buffer0 := p.tableBuffers[i0][:n]
		buffer1 := p.tableBuffers[i1][:n]
		waiting := p.waiting[slot]
		if waiting == nil {
			v.phases[i0] = p.readTable(buffer0, current, freqMod, v.freqMultiplier[i0], v.phases[i0])
			v.phases[i1] = p.readTable(buffer1, current, freqMod, v.freqMultiplier[i1], v.phases[i1])
			continue
		}
		crossFade0 := p.crossFadeBuffers[0][:n]
		crossFade1 := p.crossFadeBuffers[1][:n]
		p.readTable(buffer0, current, freqMod, v.freqMultiplier[i0], v.phases[i0])
		p.readTable(buffer1, current, freqMod, v.freqMultiplier[i1], v.phases[i1])
		v.phases[i0] = p.readTable(crossFade0, waiting, freqMod, v.freqMultiplier[i0], v.phases[i0])
		v.phases[i1] = p.readTable(crossFade1, waiting, freqMod, v.freqMultiplier[i1], v.phases[i1])
		// the blend spans the whole block even when it is rendered in fragments
		delta := 1.0 / RenderQuantum
		alpha := float64(from) * delta
		for i := 0; i < n; i++ {
			buffer0[i] = buffer0[i]*(1.0-alpha) + crossFade0[i]*alpha
			buffer1[i] = buffer1[i]*(1.0-alpha) + crossFade1[i]*alpha
			alpha += delta
		}
	}

	bufferL0 := p.tableBuffers[0][:n]
	bufferR0 := p.tableBuffers[1][:n]
	bufferL1 := p.tableBuffers[2][:n]
	bufferR1 := p.tableBuffers[3][:n]
	mixL := p.mixL[:n]
	mixR := p.mixR[:n]
	baseMixAB := s.BlendAB
	lfoToVolumeAmount := s.LfoToVolume
	velocityAmount := v.velocity * s.VelocityToBlend
	valid := true
	for i := 0; i < n; i++ {
		lfoValue := lfoBuffer[i]
		var gainMod float64
		if lfoToVolumeAmount >= 0 {
			gainMod = (lfoValue+1.0)*0.5*lfoToVolumeAmount + (1.0 - lfoToVolumeAmount)
		} else {
			gainMod = (lfoValue-1.0)*0.5*lfoToVolumeAmount + (1.0 + lfoToVolumeAmount)
		}
		gain := envBufferA[i] * v.gain * gainMod
		lfoToMixAB := lfoValue * s.LfoToBlend
		mixAB := baseMixAB
		if lfoToMixAB < 0 {
			mixAB += lfoToMixAB * baseMixAB
		} else {
			mixAB += lfoToMixAB * (1.0 - baseMixAB)
		}
		mixAB += envBufferB[i] * s.EnvBToBlend * (1.0 - mixAB)
		mixAB += velocityAmount * (1.0 - mixAB)
		mixAB = clamp(0.0, 1.0, mixAB+v.trackingAmount)
		gain1 := mixAB
		gain0 := 1.0 - gain1
		l0 := bufferL0[i] * gain0
		r0 := bufferR0[i] * gain0
		l1 := bufferL1[i] * gain1
		r1 := bufferR1[i] * gain1

		// quadrant pan
		x := s.LfoPanAmount * lfoValue
		var a, b, c, d float64
		if x <= 0 {
			a, b, c, d = 1.0, 0.0, x*x, 1.0-x*x
		} else {
			a, b, c, d = 1.0-x*x, x*x, 0.0, 1.0
		}
		outL := (l0*a + r0*c + l1*d + r1*b) * gain
		outR := (l0*b + r0*d + l1*c + r1*a) * gain
		if math.IsNaN(outL) || math.IsNaN(outR) || math.IsInf(outL, 0) || math.IsInf(outR, 0) {
			valid = false
			break
		}
		mixL[i] = outL
		mixR[i] = outR
	}
	if !valid {
		// a broken voice goes silent and is removed
		return false
	}
	for i := 0; i < n; i++ {
		left[from+i] += float32(mixL[i])
		right[from+i] += float32(mixR[i])
	}
	return v.envA.running()
}
