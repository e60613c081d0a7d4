package systems

type SystemManagerConfig struct {
	Workers         int
	JobQueueSize    int
	MaxTextureCount uint32
}

// SystemManager owns the long-lived systems shared by every import.
type SystemManager struct {
	JobSystem     *JobSystem
	TextureSystem *TextureSystem
}

func NewSystemManager(config SystemManagerConfig, textures TextureSource) (*SystemManager, error) {
	js, err := NewJobSystem(config.Workers, config.JobQueueSize)
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: config.MaxTextureCount,
	}, textures)
	if err != nil {
		_ = js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		JobSystem:     js,
		TextureSystem: ts,
	}, nil
}

// Shutdown drains the job queue before the textures go away.
func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	return sm.TextureSystem.Shutdown()
}
