package storage

import (
	"errors"

	"commentary-ai/internal/types"

	"gorm.io/gorm"
)

func SaveRun(run *types.PipelineRun) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	// Upsert keyed on RunId: Id is the primary key but callers only know
	// the run id.
	var existing types.PipelineRun
	result := DB.Where("run_id = ?", run.RunId).First(&existing)

	if result.Error == nil {
		run.Id = existing.Id
		return DB.Save(run).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(run).Error
	}
	return result.Error
}

func GetRun(runId string) (*types.PipelineRun, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var run types.PipelineRun
	if err := DB.Where("run_id = ?", runId).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func GetRunHistory(limit int) ([]types.PipelineRun, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var runs []types.PipelineRun
	if err := DB.Order("create_time desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func DeleteRun(runId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("run_id = ?", runId).Delete(&types.PipelineRun{}).Error
}

// MarkStaleRuns fails every run left in a working stage by a previous
// process. Called once at startup, before the queue accepts work.
func MarkStaleRuns() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.PipelineRun{}).
		Where("stage IN ?", []types.Stage{
			types.StageSampling,
			types.StageAnalyzing,
			types.StageScripting,
			types.StageSynthesizing,
			types.StageComposing,
		}).
		Updates(map[string]interface{}{
			"stage":       types.StageFailed,
			"fail_reason": "run interrupted by server restart",
		})
	return result.RowsAffected, result.Error
}
